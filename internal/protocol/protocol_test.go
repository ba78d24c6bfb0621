package protocol

import (
	"testing"
)

func TestParseRequest_ControlCommands(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare token", "disable_auto_disconnect", CmdDisableAutoDisconnect},
		{"json string", `"disable_auto_disconnect"`, CmdDisableAutoDisconnect},
		{"bitmap token", "get_image_bitmap", CmdGetImageBitmap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.raw))
			if err != nil {
				t.Fatalf("ParseRequest failed: %v", err)
			}
			if req.Command != tt.want {
				t.Errorf("Command: got %q, want %q", req.Command, tt.want)
			}
		})
	}
}

func TestParseRequest_Cmds(t *testing.T) {
	req, err := ParseRequest([]byte(`{"cmds": ["x := 1", "y := 2"]}`))
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if len(req.Cmds) != 2 || req.Cmds[0] != "x := 1" {
		t.Errorf("Cmds: got %v", req.Cmds)
	}
}

func TestParseRequest_CmdsNotAList(t *testing.T) {
	_, err := ParseRequest([]byte(`{"cmds": "not-a-list"}`))
	if err == nil {
		t.Fatal("ParseRequest should reject non-list cmds")
	}
}

func TestParseRequest_Call(t *testing.T) {
	raw := `{"params": {"name": "exec", "args": ["console-eval", ["1+1"]], "kwargs": {"k": 1}}}`
	req, err := ParseRequest([]byte(raw))
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.Call == nil {
		t.Fatal("Call should be set")
	}
	if req.Call.Name != "exec" {
		t.Errorf("Name: got %q, want exec", req.Call.Name)
	}
	if len(req.Call.Args) != 2 {
		t.Errorf("Args: got %d entries, want 2", len(req.Call.Args))
	}
}

func TestParseRequest_CallWithoutName(t *testing.T) {
	_, err := ParseRequest([]byte(`{"params": {"args": []}}`))
	if err == nil {
		t.Fatal("ParseRequest should reject a call without a procedure name")
	}
}

func TestParseRequest_TypedBitmap(t *testing.T) {
	raw := `{"type": "get_image_bitmap", "params": {"max_width": 800, "max_height": 600,
		"region": {"origin_x": 10, "origin_y": 20, "width": 30, "height": 40}}}`
	req, err := ParseRequest([]byte(raw))
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.Type != CmdGetImageBitmap {
		t.Errorf("Type: got %q", req.Type)
	}
	if req.Bitmap == nil || req.Bitmap.MaxWidth == nil || *req.Bitmap.MaxWidth != 800 {
		t.Fatalf("Bitmap params not parsed: %+v", req.Bitmap)
	}
	r := req.Bitmap.Region
	if r == nil || !r.Complete() {
		t.Fatalf("Region should be complete: %+v", r)
	}
	if *r.OriginX != 10 || *r.Height != 40 {
		t.Errorf("Region fields: got (%d, %d)", *r.OriginX, *r.Height)
	}
}

func TestParseRequest_TypedWithoutParams(t *testing.T) {
	req, err := ParseRequest([]byte(`{"type": "get_image_metadata"}`))
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.Type != CmdGetImageMetadata {
		t.Errorf("Type: got %q", req.Type)
	}
}

func TestParseRequest_UnknownShape(t *testing.T) {
	_, err := ParseRequest([]byte(`{"something": 1}`))
	if err == nil {
		t.Fatal("ParseRequest should reject unknown shapes")
	}
}

func TestRegionSpec_FieldCount(t *testing.T) {
	one := 1
	tests := []struct {
		name string
		spec RegionSpec
		want int
	}{
		{"empty", RegionSpec{}, 0},
		{"one field", RegionSpec{OriginX: &one}, 1},
		{"three fields", RegionSpec{OriginX: &one, OriginY: &one, Width: &one}, 3},
		{"complete", RegionSpec{OriginX: &one, OriginY: &one, Width: &one, Height: &one}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.FieldCount(); got != tt.want {
				t.Errorf("FieldCount: got %d, want %d", got, tt.want)
			}
			if tt.spec.Complete() != (tt.want == 4) {
				t.Errorf("Complete: got %v for %d fields", tt.spec.Complete(), tt.want)
			}
		})
	}
}
