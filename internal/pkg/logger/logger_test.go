package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := zerolog.New(&buf).With().Str("request_id", "abc").Logger()
	ctx := WithContext(context.Background(), &l)

	FromContext(ctx).Info().Msg("hello")
	if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"abc"`)) {
		t.Fatalf("expected request id in output, got %s", buf.String())
	}

	if FromContext(context.Background()) == nil {
		t.Fatal("expected global logger fallback")
	}
}

func TestBytes(t *testing.T) {
	t.Parallel()

	if got := Bytes(100 * 1000 * 1000); got != "100 MB" {
		t.Fatalf("expected 100 MB, got %s", got)
	}
	if got := Bytes(-1000); got != "-1.0 kB" {
		t.Fatalf("expected -1.0 kB, got %s", got)
	}
}
