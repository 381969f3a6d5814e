package presence

import "testing"

func TestMirror_Key(t *testing.T) {
	m := New("localhost:6379", "", 0, "instance-a")
	if m.key() != "ftp:presence:instance-a" {
		t.Errorf("unexpected key: %s", m.key())
	}
}

func TestNew_BuildsClient(t *testing.T) {
	m := New("localhost:6379", "", 0, "instance-b")
	if m.client == nil {
		t.Fatal("expected a non-nil redis client")
	}
	defer m.Close()
}
