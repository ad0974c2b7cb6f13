package capture

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/kbukum/minutes/util"
)

// DefaultClipExt is the extension of encoded clips.
const DefaultClipExt = ".mp3"

// ClipNamer hands out clip paths that are unique within a session:
//
//	<dir>/voice_2026-10-18_1792300800123-7_42.mp3
type ClipNamer struct {
	Dir string
	Ext string

	now func() time.Time
	seq atomic.Uint64
}

// NewClipNamer creates a namer rooted at dir.
func NewClipNamer(dir string) *ClipNamer {
	return &ClipNamer{Dir: dir, Ext: DefaultClipExt, now: time.Now}
}

// Next returns a fresh clip path for speakerID.
func (n *ClipNamer) Next(speakerID string) string {
	now := time.Now
	if n.now != nil {
		now = n.now
	}
	ext := n.Ext
	if ext == "" {
		ext = DefaultClipExt
	}
	t := now()
	name := fmt.Sprintf("voice_%s_%d-%d_%s%s",
		t.Format("2006-01-02"),
		t.UnixMilli(),
		n.seq.Add(1),
		util.SanitizeFileComponent(speakerID),
		ext,
	)
	return filepath.Join(n.Dir, name)
}
