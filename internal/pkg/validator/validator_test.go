package validator

import (
	"strings"
	"testing"
)

type queryDTO struct {
	OrderBy  string `json:"order_by" validate:"order_by"`
	OrderDir string `json:"order_dir" validate:"order_dir"`
	Limit    int    `json:"limit" validate:"gte=0,lte=100"`
}

type hashDTO struct {
	Hash string `json:"hash" validate:"required,content_hash"`
}

func TestValidateCustomTags(t *testing.T) {
	t.Parallel()

	if errs := Validate(queryDTO{OrderBy: "size", OrderDir: "DESC", Limit: 20}); errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if errs := Validate(queryDTO{}); errs != nil {
		t.Fatalf("empty values should pass: %v", errs)
	}

	errs := Validate(queryDTO{OrderBy: "mime; DROP TABLE", OrderDir: "sideways", Limit: 500})
	for _, field := range []string{"order_by", "order_dir", "limit"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, errs)
		}
	}
}

func TestContentHash(t *testing.T) {
	t.Parallel()

	good := strings.Repeat("ab", 32)
	if errs := Validate(hashDTO{Hash: good}); errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	for _, bad := range []string{"", "abc", strings.Repeat("AB", 32), strings.Repeat("zz", 32)} {
		if IsContentHash(bad) {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}
