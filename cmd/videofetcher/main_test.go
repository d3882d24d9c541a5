package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_ArgumentErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown command", args: []string{"delete", "abc"}, wantErr: `unknown command "delete"`},
		{name: "get without id", args: []string{"get"}, wantErr: "get takes exactly one video id"},
		{name: "fetch with two ids", args: []string{"fetch", "a", "b"}, wantErr: "fetch takes exactly one video id"},
		{name: "search without query", args: []string{"search"}, wantErr: "search needs a query"},
		{name: "list bad flag", args: []string{"list", "-limit", "x"}, wantErr: "invalid value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), nil, tt.args)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
