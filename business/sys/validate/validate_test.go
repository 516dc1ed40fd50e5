package validate_test

import (
	"testing"

	"github.com/isschain/blockchain/business/sys/validate"
	"github.com/isschain/blockchain/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type register struct {
	Name string `json:"name" validate:"required"`
	To   string `json:"to" validate:"omitempty,account"`
}

func TestCheck(t *testing.T) {
	good := string(database.NewAccountID("bill", 1, 1))

	tt := []struct {
		name   string
		model  register
		fields []string
	}{
		{"valid", register{Name: "bill", To: good}, nil},
		{"missing", register{To: good}, []string{"name"}},
		{"account", register{Name: "bill", To: "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"}, []string{"to"}},
	}

	t.Log("Given the need to validate request models.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				err := validate.Check(tst.model)
				if len(tst.fields) == 0 {
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould pass validation: %s", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould pass validation.", success, testID)
					return
				}

				fields := validate.GetFieldErrors(err).Fields()
				for _, name := range tst.fields {
					if _, exists := fields[name]; !exists {
						t.Fatalf("\t%s\tTest %d:\tShould flag field %q: %v", failed, testID, name, err)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould flag the bad fields: %s", success, testID, err)
			}
			t.Run(tst.name, f)
		}
	}
}
