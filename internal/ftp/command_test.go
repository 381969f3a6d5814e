package ftp

import (
	"errors"
	"testing"
)

func TestParse_NoArgCommands(t *testing.T) {
	cmd, err := Parse("PWD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Code != CodePwd {
		t.Errorf("expected CodePwd, got %v", cmd.Code)
	}
}

func TestParse_StringArgRequiresArgument(t *testing.T) {
	_, err := Parse("USER")
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("expected ErrSyntax, got %v", err)
	}

	cmd, err := Parse("USER anonymous")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Code != CodeUser || cmd.Arg != "anonymous" {
		t.Errorf("unexpected command: %+v", cmd)
	}
}

func TestParse_OptionalArgCommand(t *testing.T) {
	cmd, err := Parse("LIST")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.HasArg {
		t.Error("expected no argument present")
	}

	cmd, err = Parse("LIST /pub")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cmd.HasArg || cmd.Arg != "/pub" {
		t.Errorf("unexpected command: %+v", cmd)
	}
}

func TestParse_TypeSingleLetter(t *testing.T) {
	for _, tc := range []struct {
		arg  string
		want TransmissionType
	}{
		{"A", TypeASCII},
		{"e", TypeEBCDIC},
		{"I", TypeImage},
	} {
		cmd, err := Parse("TYPE " + tc.arg)
		if err != nil {
			t.Fatalf("TYPE %s: unexpected error: %v", tc.arg, err)
		}
		if cmd.Type == nil || cmd.Type.Transmission != tc.want {
			t.Errorf("TYPE %s: unexpected result %+v", tc.arg, cmd.Type)
		}
	}
}

func TestParse_TypeSecondaryParameterRejected(t *testing.T) {
	_, err := Parse("TYPE A N")
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("expected ErrSyntax for unsupported secondary parameter, got %v", err)
	}
}

func TestParse_PortValid(t *testing.T) {
	cmd, err := Parse("PORT 192,168,1,5,7,138")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Port.Addr != [4]byte{192, 168, 1, 5} {
		t.Errorf("unexpected address: %v", cmd.Port.Addr)
	}
	if cmd.Port.Port != 7*256+138 {
		t.Errorf("unexpected port: %d", cmd.Port.Port)
	}
}

func TestParse_PortWrongTokenCount(t *testing.T) {
	_, err := Parse("PORT 192,168,1,5,7")
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("expected ErrSyntax, got %v", err)
	}
}

func TestParse_PortOutOfRangeOctet(t *testing.T) {
	_, err := Parse("PORT 256,168,1,5,7,138")
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("expected ErrSyntax, got %v", err)
	}
}

func TestParse_TooShortLine(t *testing.T) {
	_, err := Parse("AB")
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("expected ErrSyntax, got %v", err)
	}
}

func TestParse_UnrecognizedCommand(t *testing.T) {
	_, err := Parse("FROB something")
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("expected ErrSyntax, got %v", err)
	}
}
