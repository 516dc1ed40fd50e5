package nameservice_test

import (
	"testing"

	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/isschain/blockchain/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestLookup(t *testing.T) {
	bill := database.NewAccount("bill", 1, 1, 0, "")
	pavel := database.NewAccount("pavel", 2, 1, 0, "")
	ghost := database.NewAccountID("ghost", 3, 1)

	t.Log("Given the need to resolve account names.")
	{
		ns := nameservice.New([]database.Account{bill})
		ns.Add(pavel)

		tt := []struct {
			id  database.AccountID
			exp string
		}{
			{bill.AccountID, "bill"},
			{pavel.AccountID, "pavel"},
			{ghost, ghost.Short()},
		}

		for testID, tst := range tt {
			if got := ns.Lookup(tst.id); got != tst.exp {
				t.Fatalf("\t%s\tTest %d:\tShould resolve %s, got %s.", failed, testID, tst.exp, got)
			}
			t.Logf("\t%s\tTest %d:\tShould resolve %s.", success, testID, tst.exp)
		}

		if ids := ns.Find("pavel"); len(ids) != 1 || ids[0] != pavel.AccountID {
			t.Fatalf("\t%s\tShould find pavel by name: %v", failed, ids)
		}
		t.Logf("\t%s\tShould find pavel by name.", success)

		if len(ns.Copy()) != 2 {
			t.Fatalf("\t%s\tShould copy both names.", failed)
		}
		t.Logf("\t%s\tShould copy both names.", success)
	}
}
