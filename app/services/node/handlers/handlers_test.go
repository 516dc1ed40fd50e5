package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/isschain/blockchain/app/services/node/handlers"
	"github.com/isschain/blockchain/foundation/blockchain/database"
	"github.com/isschain/blockchain/foundation/blockchain/genesis"
	"github.com/isschain/blockchain/foundation/blockchain/state"
	"github.com/isschain/blockchain/foundation/blockchain/storage/memory"
	"github.com/isschain/blockchain/foundation/events"
	"github.com/isschain/blockchain/foundation/nameservice"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type account struct {
	AccountID database.AccountID `json:"account_id"`
	Name      string             `json:"name"`
	Available database.Amount    `json:"available"`
	Pending   database.Amount    `json:"pending"`
}

func newMux(t *testing.T) http.Handler {
	gen := genesis.Default()
	gen.Difficulty = 1

	storage, _ := memory.New()
	st, err := state.New(state.Config{Genesis: gen, Storage: storage})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %s", failed, err)
	}

	return handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		NS:       nameservice.New(nil),
		Evts:     events.New(),
	})
}

func call(t *testing.T, mux http.Handler, method string, path string, body any, resp any) int {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("\t%s\tShould be able to encode the request: %s", failed, err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if resp != nil && w.Code < 300 {
		if err := json.NewDecoder(w.Body).Decode(resp); err != nil {
			t.Fatalf("\t%s\tShould be able to decode the response: %s", failed, err)
		}
	}

	return w.Code
}

// =============================================================================

func Test_PublicAPI(t *testing.T) {
	t.Log("Given the need to move money through the public API.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen registering, sending and mining.", testID)
		{
			mux := newMux(t)

			pk, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to generate a key: %s", failed, testID, err)
			}
			addr := crypto.PubkeyToAddress(pk.PublicKey).Hex()

			var bill, pavel account
			if code := call(t, mux, http.MethodPost, "/v1/accounts/register", map[string]string{"name": "bill", "attestation_key": addr}, &bill); code != http.StatusCreated {
				t.Fatalf("\t%s\tTest %d:\tShould be able to register bill: %d", failed, testID, code)
			}
			if code := call(t, mux, http.MethodPost, "/v1/accounts/register", map[string]string{"name": "pavel"}, &pavel); code != http.StatusCreated {
				t.Fatalf("\t%s\tTest %d:\tShould be able to register pavel: %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to register accounts.", success, testID)

			if code := call(t, mux, http.MethodPost, "/v1/accounts/register", map[string]string{"name": ""}, nil); code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould reject a registration without a name: %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a registration without a name.", success, testID)

			tr := database.Transfer{From: bill.AccountID, To: pavel.AccountID, Amount: database.Coins(50), TimeStamp: 1000}
			signed, err := tr.Sign(pk)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to sign: %s", failed, testID, err)
			}

			if code := call(t, mux, http.MethodPost, "/v1/tx/submit", signed, nil); code != http.StatusAccepted {
				t.Fatalf("\t%s\tTest %d:\tShould accept the transfer: %d", failed, testID, code)
			}
			if code := call(t, mux, http.MethodPost, "/v1/tx/submit", signed, nil); code != http.StatusConflict {
				t.Fatalf("\t%s\tTest %d:\tShould reject the duplicate: %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the transfer once.", success, testID)

			var pending []json.RawMessage
			if code := call(t, mux, http.MethodGet, "/v1/tx/uncommitted/list", nil, &pending); code != http.StatusOK || len(pending) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould list one pending transaction: %d %d", failed, testID, code, len(pending))
			}
			t.Logf("\t%s\tTest %d:\tShould list one pending transaction.", success, testID)

			if code := call(t, mux, http.MethodPost, "/v1/mining/mine/"+string(pavel.AccountID), nil, nil); code != http.StatusCreated {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine: %d", failed, testID, code)
			}
			if code := call(t, mux, http.MethodPost, "/v1/mining/mine/"+string(pavel.AccountID), nil, nil); code != http.StatusConflict {
				t.Fatalf("\t%s\tTest %d:\tShould not mine an empty pool: %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould mine the pending transaction.", success, testID)

			var resp struct {
				Accounts []account `json:"accounts"`
			}
			if code := call(t, mux, http.MethodGet, "/v1/accounts/list/"+string(pavel.AccountID), nil, &resp); code != http.StatusOK || len(resp.Accounts) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould be able to query pavel: %d", failed, testID, code)
			}
			if got := resp.Accounts[0].Available; got != database.Coins(150) {
				t.Fatalf("\t%s\tTest %d:\tShould credit the receiver and miner shares: %s", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould credit the receiver and miner shares.", success, testID)

			var blocks []json.RawMessage
			if code := call(t, mux, http.MethodGet, "/v1/blocks/list", nil, &blocks); code != http.StatusOK || len(blocks) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould list two blocks: %d %d", failed, testID, code, len(blocks))
			}
			t.Logf("\t%s\tTest %d:\tShould list two blocks.", success, testID)

			ghost := database.NewAccountID("ghost", 9, 9)
			if code := call(t, mux, http.MethodGet, "/v1/accounts/list/"+string(ghost), nil, nil); code != http.StatusNotFound {
				t.Fatalf("\t%s\tTest %d:\tShould not find an unknown account: %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould not find an unknown account.", success, testID)

			toGhost := database.Transfer{From: bill.AccountID, To: ghost, Amount: database.Coins(5), TimeStamp: 2000}
			signedGhost, err := toGhost.Sign(pk)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to sign: %s", failed, testID, err)
			}
			if code := call(t, mux, http.MethodPost, "/v1/tx/submit", signedGhost, nil); code != http.StatusNotFound {
				t.Fatalf("\t%s\tTest %d:\tShould reject a transfer to an unknown account: %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a transfer to an unknown account.", success, testID)

			if code := call(t, mux, http.MethodPost, "/v1/mining/mine/"+string(ghost), nil, nil); code != http.StatusNotFound {
				t.Fatalf("\t%s\tTest %d:\tShould reject an unknown miner: %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an unknown miner.", success, testID)
		}
	}
}
