package wsext

import "testing"

func TestParse_Defaults(t *testing.T) {
	params, err := Parse("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Default()
	if params != want {
		t.Errorf("expected defaults %+v, got %+v", want, params)
	}
}

func TestParse_Flags(t *testing.T) {
	params, err := Parse("server_no_context_takeover; client_no_context_takeover")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !params.ServerNoContextTakeover || !params.ClientNoContextTakeover {
		t.Errorf("expected both context-takeover flags set: %+v", params)
	}
}

func TestParse_WindowBits(t *testing.T) {
	params, err := Parse("server_max_window_bits=10; client_max_window_bits=9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.ServerMaxWindowBits != 10 || params.ClientMaxWindowBits != 9 {
		t.Errorf("unexpected window bits: %+v", params)
	}
}

func TestParse_WindowBitsOutOfRange(t *testing.T) {
	if _, err := Parse("server_max_window_bits=7"); err == nil {
		t.Error("expected error for window bits below 8")
	}
	if _, err := Parse("client_max_window_bits=16"); err == nil {
		t.Error("expected error for window bits above 15, even on the client side")
	}
}

func TestParse_FlagRejectsValue(t *testing.T) {
	if _, err := Parse("server_no_context_takeover=true"); err == nil {
		t.Error("expected error when a flag parameter carries a value")
	}
}

func TestParse_UnknownParameterRejected(t *testing.T) {
	if _, err := Parse("unknown_param=1"); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestString_OmitsDefaults(t *testing.T) {
	params := Default()
	if params.String() != "" {
		t.Errorf("expected empty string for all-default params, got %q", params.String())
	}
}
