package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
)

func TestVaultRoundTrip(t *testing.T) {
	v := NewVaultWithKeyring(keyring.NewArrayKeyring(nil))

	if err := v.SavePassword("Me@Example.com", "hunter2"); err != nil {
		t.Fatalf("SavePassword: %v", err)
	}

	pw, err := v.GetPassword("me@example.com ")
	if err != nil {
		t.Fatalf("GetPassword: %v", err)
	}
	if pw != "hunter2" {
		t.Errorf("password = %q, want hunter2", pw)
	}

	if err := v.DeletePassword("me@example.com"); err != nil {
		t.Fatalf("DeletePassword: %v", err)
	}
	if _, err := v.GetPassword("me@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPassword after delete: err = %v, want ErrNotFound", err)
	}
}

func TestVaultDeleteMissingIsNoop(t *testing.T) {
	v := NewVaultWithKeyring(keyring.NewArrayKeyring(nil))
	if err := v.DeletePassword("nobody@example.com"); err != nil {
		t.Errorf("DeletePassword on missing account: %v", err)
	}
}

func TestVaultRejectsEmptyAccount(t *testing.T) {
	v := NewVaultWithKeyring(keyring.NewArrayKeyring(nil))
	if err := v.SavePassword("  ", "pw"); err == nil {
		t.Error("SavePassword with empty account succeeded")
	}
}
