package validator

import "testing"

type point struct {
	Lat float64 `validate:"lat"`
	Lng float64 `validate:"lng"`
}

func TestValidateStruct_Coordinates(t *testing.T) {
	t.Parallel()

	if err := ValidateStruct(point{Lat: 37.98, Lng: 23.72}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := ValidateStruct(point{Lat: 91, Lng: 0}); err == nil {
		t.Fatalf("expected lat error")
	}
	if err := ValidateStruct(point{Lat: 0, Lng: -180.5}); err == nil {
		t.Fatalf("expected lng error")
	}
}

func TestValidateVar_ImageDataURI(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in string
		ok bool
	}{
		{"data:image/png;base64,iVBORw0KGgo=", true},
		{"data:image/jpeg,abc", true},
		{"data:text/plain;base64,aGk=", false},
		{"https://example.org/cat.png", false},
		{"data:image/png;base64,", false},
		{"", false},
	}
	for _, c := range cases {
		err := ValidateVar(c.in, "image_data_uri")
		if (err == nil) != c.ok {
			t.Fatalf("%q: expected ok=%v, got err=%v", c.in, c.ok, err)
		}
	}
}
