package model

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// AccountState is the tombstone/liveness enum for a token-holder record.
type AccountState string

const (
	AccountUninitialized AccountState = "Uninitialized"
	AccountInitialized   AccountState = "Initialized"
	AccountFrozen        AccountState = "Frozen"
)

// AccountWire is the wire row layout for a token-holder account.
type AccountWire struct {
	Account   string    `json:"account"`
	Mint      string    `json:"mint"`
	Owner     string    `json:"owner"`
	Amount    uint64    `json:"amount"`
	Program   string    `json:"program"`
	State     string    `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Account is the in-memory form. Amount is a raw base-unit integer — it is
// scaled by the owning Token's decimals only at the point of percentage
// math (C1), never before.
type Account struct {
	Account   solana.PublicKey
	Mint      solana.PublicKey
	Owner     solana.PublicKey
	Amount    uint64
	Program   solana.PublicKey
	State     AccountState
	UpdatedAt time.Time
}

// Live reports whether the account currently holds a real balance, i.e. is
// not a closed or never-initialized token account.
func (a Account) Live() bool {
	return a.State == AccountInitialized || a.State == AccountFrozen
}

// AccountFromWire parses a wire row.
func AccountFromWire(w AccountWire) (Account, error) {
	acct, err := solana.PublicKeyFromBase58(w.Account)
	if err != nil {
		return Account{}, NewParseError("account", err)
	}
	mint, err := solana.PublicKeyFromBase58(w.Mint)
	if err != nil {
		return Account{}, NewParseError("mint", err)
	}
	owner, err := solana.PublicKeyFromBase58(w.Owner)
	if err != nil {
		return Account{}, NewParseError("owner", err)
	}
	program, err := solana.PublicKeyFromBase58(w.Program)
	if err != nil {
		return Account{}, NewParseError("program", err)
	}
	state := AccountState(w.State)
	switch state {
	case AccountUninitialized, AccountInitialized, AccountFrozen:
	default:
		return Account{}, NewParseError("state", errInvalidEnum(w.State))
	}

	return Account{
		Account:   acct,
		Mint:      mint,
		Owner:     owner,
		Amount:    w.Amount,
		Program:   program,
		State:     state,
		UpdatedAt: w.UpdatedAt,
	}, nil
}

// ToWire converts the in-memory form back to the wire row, infallibly.
func (a Account) ToWire() AccountWire {
	return AccountWire{
		Account:   a.Account.String(),
		Mint:      a.Mint.String(),
		Owner:     a.Owner.String(),
		Amount:    a.Amount,
		Program:   a.Program.String(),
		State:     string(a.State),
		UpdatedAt: a.UpdatedAt,
	}
}

// TransferSolWire is the wire row layout for a SOL transfer, used to derive
// dev-wallet funding provenance.
type TransferSolWire struct {
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Amount      string    `json:"amount"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransferSol is the in-memory form.
type TransferSol struct {
	Source      solana.PublicKey
	Destination solana.PublicKey
	Amount      uint64
	Hash        solana.Signature
	CreatedAt   time.Time
}
