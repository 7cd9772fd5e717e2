package cli

import "testing"

func TestParseValRef(t *testing.T) {
	tests := []struct {
		in      string
		want    valRef
		wantErr bool
	}{
		{in: "hello", want: valRef{Name: "hello"}},
		{in: "pomdtr/hello", want: valRef{Author: "pomdtr", Name: "hello"}},
		{in: "@pomdtr/hello", want: valRef{Author: "pomdtr", Name: "hello"}},
		{in: "pomdtr.hello", want: valRef{Author: "pomdtr", Name: "hello"}},
		{in: "@pomdtr.hello", want: valRef{Author: "pomdtr", Name: "hello"}},
		{in: "a/b/c", wantErr: true},
		{in: "", wantErr: true},
		{in: "pomdtr/", wantErr: true},
		{in: "/hello", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseValRef(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseValRef(%q) = %+v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseValRef(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseValRef(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
