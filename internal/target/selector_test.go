package target_test

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/torosent/salvo/internal/target"
)

var defaultTemplates = []string{
	"http://localhost:7100/api/test/applications?page=",
	"http://localhost:7100/api/test/issues?page=",
	"http://localhost:7100/api/test/applicants?page=",
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name      string
		templates []string
		min, max  int
		wantErr   error
	}{
		{name: "no templates", templates: nil, min: 1, max: 100, wantErr: target.ErrNoTemplates},
		{name: "blank templates", templates: []string{"  ", ""}, min: 1, max: 100, wantErr: target.ErrNoTemplates},
		{name: "equal bounds", templates: defaultTemplates, min: 5, max: 5, wantErr: target.ErrEmptyPageRange},
		{name: "inverted bounds", templates: defaultTemplates, min: 10, max: 2, wantErr: target.ErrEmptyPageRange},
		{name: "valid", templates: defaultTemplates, min: 1, max: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := target.New(tt.templates, tt.min, tt.max, 42)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sel == nil {
				t.Fatal("expected selector")
			}
		})
	}
}

func TestNextStaysWithinBounds(t *testing.T) {
	sel, err := target.New(defaultTemplates, 1, 100, 7)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	seenTemplates := make(map[string]bool)
	for i := 0; i < 5000; i++ {
		url := sel.Next()
		prefix, page := splitPage(t, url)
		seenTemplates[prefix] = true
		if page < 1 || page >= 100 {
			t.Fatalf("page %d out of range [1, 100) in %q", page, url)
		}
	}

	for _, tmpl := range defaultTemplates {
		if !seenTemplates[tmpl] {
			t.Errorf("template %q never selected", tmpl)
		}
	}
}

func TestNextSinglePage(t *testing.T) {
	sel, err := target.New([]string{"http://example.com/?p="}, 3, 4, 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		if got := sel.Next(); got != "http://example.com/?p=3" {
			t.Fatalf("Next() = %q", got)
		}
	}
}

func TestSameSeedSameSequence(t *testing.T) {
	a, _ := target.New(defaultTemplates, 1, 100, 99)
	b, _ := target.New(defaultTemplates, 1, 100, 99)
	for i := 0; i < 100; i++ {
		if x, y := a.Next(), b.Next(); x != y {
			t.Fatalf("draw %d differs: %q vs %q", i, x, y)
		}
	}
}

func TestNextConcurrent(t *testing.T) {
	sel, err := target.New(defaultTemplates, 1, 100, 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				_, page := splitPage(t, sel.Next())
				if page < 1 || page >= 100 {
					t.Errorf("page %d out of range", page)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestTemplatesReturnsCopy(t *testing.T) {
	sel, _ := target.New([]string{" http://a/?page= "}, 1, 2, 1)
	got := sel.Templates()
	if len(got) != 1 || got[0] != "http://a/?page=" {
		t.Fatalf("Templates() = %v", got)
	}
	got[0] = "mutated"
	if sel.Templates()[0] == "mutated" {
		t.Fatal("Templates() exposed internal slice")
	}
}

func splitPage(t *testing.T, url string) (string, int) {
	t.Helper()
	idx := strings.LastIndex(url, "=")
	if idx < 0 {
		t.Errorf("no page separator in %q", url)
		return url, -1
	}
	page, err := strconv.Atoi(url[idx+1:])
	if err != nil {
		t.Errorf("invalid page in %q: %v", url, err)
		return url, -1
	}
	return url[:idx+1], page
}
