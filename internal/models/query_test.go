package models

import (
	"errors"
	"reflect"
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *SearchQuery
		wantErr bool
	}{
		{"empty query", &SearchQuery{Query: ""}, true},
		{"whitespace only", &SearchQuery{Query: " \t\n "}, true},
		{"single term", &SearchQuery{Query: "hello"}, false},
		{"padded terms", &SearchQuery{Query: "  star   trek "}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("Validate() error = %v, want ErrInvalidQuery", err)
			}
		})
	}
}

func TestSearchQuery_Terms(t *testing.T) {
	q := &SearchQuery{Query: "  Star\tTrek  intro\n"}
	want := []string{"Star", "Trek", "intro"}
	if got := q.Terms(); !reflect.DeepEqual(got, want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
}
