package provider_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/minutes/provider"
)

// backend is a transcription stand-in: it upper-cases the clip name.
type backend struct {
	name  string
	down  bool
	fail  error
	calls int
}

func (b *backend) Name() string                     { return b.name }
func (b *backend) IsAvailable(context.Context) bool { return !b.down }

func (b *backend) Execute(_ context.Context, clip string) (string, error) {
	b.calls++
	if b.fail != nil {
		return "", b.fail
	}
	return strings.ToUpper(clip), nil
}

func TestRegistryCreateAndFirst(t *testing.T) {
	reg := provider.NewRegistry[provider.RequestResponse[string, string]]()
	for _, name := range []string{"whisper", "openai"} {
		reg.RegisterFactory(name, func(settings map[string]any) (provider.RequestResponse[string, string], error) {
			down, _ := settings["down"].(bool)
			return &backend{name: name, down: down}, nil
		})
	}
	if got := strings.Join(reg.Names(), ","); got != "openai,whisper" {
		t.Errorf("Names = %s", got)
	}

	openai, err := reg.Create("openai", map[string]any{"down": true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	whisper, _ := reg.Create("whisper", nil)
	if _, ok := reg.Get("openai"); ok {
		t.Fatal("Create must not store the backend")
	}
	reg.Set("openai", openai)
	reg.Set("whisper", whisper)

	p, err := reg.First(context.Background(), []string{"openai", "whisper"})
	if err != nil || p.Name() != "whisper" {
		t.Fatalf("First = %v, %v; want whisper", p, err)
	}
	if _, err := reg.First(context.Background(), []string{"openai", "vosk"}); err == nil {
		t.Error("expected no available backend")
	}
}

func TestRegistryCreateUnknown(t *testing.T) {
	reg := provider.NewRegistry[provider.RequestResponse[string, string]]()
	_, err := reg.Create("deepgram", nil)
	if err == nil || !strings.Contains(err.Error(), `"deepgram" not registered`) {
		t.Fatalf("err = %v", err)
	}
}

func TestFunc(t *testing.T) {
	f := provider.Func[string, int]{ID: "len", Fn: func(_ context.Context, s string) (int, error) {
		return len([]rune(s)), nil
	}}
	n, err := f.Execute(context.Background(), "議事録")
	if err != nil || n != 3 || f.Name() != "len" || !f.IsAvailable(context.Background()) {
		t.Fatalf("Execute = %d, %v", n, err)
	}
	if (provider.Func[string, int]{}).IsAvailable(context.Background()) {
		t.Error("Func without Fn reports available")
	}
}

type tagged struct {
	provider.RequestResponse[string, string]
	tag   string
	trail *[]string
}

func (t *tagged) Execute(ctx context.Context, in string) (string, error) {
	*t.trail = append(*t.trail, t.tag+">")
	out, err := t.RequestResponse.Execute(ctx, in)
	*t.trail = append(*t.trail, "<"+t.tag)
	return out, err
}

func TestChainOrder(t *testing.T) {
	var trail []string
	tag := func(name string) provider.Middleware[string, string] {
		return func(p provider.RequestResponse[string, string]) provider.RequestResponse[string, string] {
			return &tagged{RequestResponse: p, tag: name, trail: &trail}
		}
	}

	p := provider.Chain(tag("a"), tag("b"), tag("c"))(&backend{name: "openai"})
	out, err := p.Execute(context.Background(), "clip")
	if err != nil || out != "CLIP" {
		t.Fatalf("Execute = %q, %v", out, err)
	}
	if got := strings.Join(trail, " "); got != "a> b> c> <c <b <a" {
		t.Errorf("trail = %s", got)
	}
	if p.Name() != "openai" {
		t.Errorf("Name = %s", p.Name())
	}

	if same := provider.Chain[string, string]()(&backend{name: "x"}); same.Name() != "x" {
		t.Error("empty chain changed the backend")
	}
}

var errUpstream = errors.New("upstream 502")

func TestDecodeSettings(t *testing.T) {
	type sidecar struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
		Workers int           `mapstructure:"workers"`
	}
	got, err := provider.DecodeSettings[sidecar](map[string]any{"url": "http://sidecar", "timeout": "45s", "workers": "3"})
	if err != nil {
		t.Fatalf("DecodeSettings: %v", err)
	}
	if got.URL != "http://sidecar" || got.Timeout != 45*time.Second || got.Workers != 3 {
		t.Errorf("decoded %+v", got)
	}

	got, err = provider.DecodeSettings[sidecar](map[string]any{"timeout": 2 * time.Minute})
	if err != nil || got.Timeout != 2*time.Minute {
		t.Errorf("duration value: %+v, %v", got, err)
	}
	if _, err := provider.DecodeSettings[sidecar](map[string]any{"timeout": "soon"}); err == nil {
		t.Error("bad duration accepted")
	}
}
