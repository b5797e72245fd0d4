package engine

import (
	"testing"

	pkgerrors "github.com/xkartlabs/xkart-backend/pkg/errors"
)

func TestDeployerIsSeededAdmin(t *testing.T) {
	e, _ := newTestEngine(t)
	if !e.IsAdmin(deployer) {
		t.Fatal("deployer not admin")
	}
	if e.IsAdmin("stranger") {
		t.Fatal("stranger is admin")
	}
}

func TestAddAdminRequiresAdmin(t *testing.T) {
	e, _ := newTestEngine(t)
	err := e.AddAdmin("stranger", "stranger")
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestAddAdminGrantsCapability(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.AddAdmin(deployer, "operator"); err != nil {
		t.Fatalf("add admin: %v", err)
	}
	if !e.IsAdmin("operator") {
		t.Fatal("operator not admin after grant")
	}
	// The new admin can mint.
	if err := e.Mint("operator", Account{Owner: "alice"}, 10); err != nil {
		t.Fatalf("mint by new admin: %v", err)
	}
}

func TestAdminsListSortedAndGated(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.AddAdmin(deployer, "zed"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := e.AddAdmin(deployer, "amy"); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err := e.Admins("stranger")
	assertCode(t, err, pkgerrors.CodeUnauthorized)

	admins, err := e.Admins(deployer)
	if err != nil {
		t.Fatalf("admins: %v", err)
	}
	want := []Principal{"amy", "deployer", "zed"}
	if len(admins) != len(want) {
		t.Fatalf("admins = %v", admins)
	}
	for i, p := range want {
		if admins[i] != p {
			t.Fatalf("admins[%d] = %s, want %s", i, admins[i], p)
		}
	}
}
