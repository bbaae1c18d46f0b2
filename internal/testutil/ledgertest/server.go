// Package ledgertest runs a miniature in-memory ledger engine speaking
// the client wire protocol over TCP. It exists so session, multiplexer
// and client tests can exercise a real duplex channel end to end,
// including out-of-order completions.
package ledgertest

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tallyledger/tally-go/internal/protocol"
	"github.com/tallyledger/tally-go/internal/protocol/frame"
	"github.com/tallyledger/tally-go/internal/session"
	"github.com/tallyledger/tally-go/internal/types"
)

// Server is one listening engine instance. The zero value is not
// usable; construct with Start.
type Server struct {
	log    zerolog.Logger
	lis    net.Listener
	limits frame.Limits

	// HelloStatus is returned to every handshake. Defaults to InitOK;
	// set before the client connects to simulate a rejecting engine.
	HelloStatus session.InitStatus

	// Delay, when non-nil, stalls the response for a frame. Lets tests
	// force completions to arrive out of submission order.
	Delay func(fr frame.Frame) time.Duration

	mu        sync.Mutex
	accounts  map[types.Uint128]types.Account
	transfers map[types.Uint128]types.Transfer
	clock     uint64
	closed    bool
}

// Start listens on a loopback port and serves until Close.
func Start(log zerolog.Logger) (*Server, error) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{
		log:       log.With().Str("component", "ledgertest").Logger(),
		lis:       lis,
		limits:    frame.DefaultLimits(),
		accounts:  make(map[types.Uint128]types.Account),
		transfers: make(map[types.Uint128]types.Transfer),
	}
	go s.acceptLoop()
	return s, nil
}

// Addr returns the host:port the engine listens on.
func (s *Server) Addr() string {
	return s.lis.Addr().String()
}

func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.lis.Close()
}

// Account returns the stored record for id, if any.
func (s *Server) Account(id types.Uint128) (types.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	return a, ok
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.lis.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			continue
		}
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	var writeMu sync.Mutex
	for {
		fr, err := frame.ReadFrame(conn, s.limits)
		if err != nil {
			if err != io.EOF {
				s.log.Debug().Err(err).Msg("connection closed")
			}
			return
		}
		go s.handle(conn, &writeMu, fr)
	}
}

func (s *Server) handle(conn net.Conn, writeMu *sync.Mutex, fr frame.Frame) {
	if s.Delay != nil {
		if d := s.Delay(fr); d > 0 {
			time.Sleep(d)
		}
	}

	var payload []byte
	switch fr.Header.Operation {
	case frame.OpHello:
		payload = make([]byte, 4)
		binary.LittleEndian.PutUint32(payload, uint32(s.HelloStatus))
	case frame.OpCreateAccounts:
		payload = s.createAccounts(fr.Payload)
	case frame.OpCreateTransfers:
		payload = s.createTransfers(fr.Payload)
	case frame.OpLookupAccounts:
		payload = s.lookupAccounts(fr.Payload)
	}

	resp := frame.Frame{
		Header: frame.Header{
			CorrelationID: fr.Header.CorrelationID,
			Operation:     fr.Header.Operation,
			Flags:         frame.FlagIsResponse,
		},
		Payload: payload,
	}
	writeMu.Lock()
	err := frame.WriteFrame(conn, resp, s.limits)
	writeMu.Unlock()
	if err != nil {
		s.log.Debug().Err(err).Msg("response write failed")
	}
}

func (s *Server) createAccounts(payload []byte) []byte {
	accounts, err := protocol.DecodeAccounts(payload)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var results []types.AccountResult
	for i, a := range accounts {
		outcome := s.checkAccount(a)
		if outcome != types.AccountOK {
			results = append(results, types.AccountResult{Index: uint32(i), Outcome: outcome})
			continue
		}
		s.clock++
		a.Timestamp = s.clock
		s.accounts[a.ID] = a
	}
	return protocol.EncodeAccountResults(results)
}

func (s *Server) checkAccount(a types.Account) types.CreateAccountOutcome {
	switch {
	case a.ID.IsZero():
		return types.AccountIDMustNotBeZero
	case a.ID == types.MaxUint128:
		return types.AccountIDMustNotBeIntMax
	case a.Timestamp != 0:
		return types.AccountTimestampMustBeZero
	case !a.DebitsPending.IsZero():
		return types.AccountDebitsPendingMustBeZero
	case !a.DebitsPosted.IsZero():
		return types.AccountDebitsPostedMustBeZero
	case !a.CreditsPending.IsZero():
		return types.AccountCreditsPendingMustBeZero
	case !a.CreditsPosted.IsZero():
		return types.AccountCreditsPostedMustBeZero
	case a.Ledger == 0:
		return types.AccountLedgerMustNotBeZero
	case a.Code == 0:
		return types.AccountCodeMustNotBeZero
	}
	if existing, ok := s.accounts[a.ID]; ok {
		if existing.Ledger != a.Ledger {
			return types.AccountExistsWithDifferentLedger
		}
		if existing.Code != a.Code {
			return types.AccountExistsWithDifferentCode
		}
		if existing.Flags != a.Flags {
			return types.AccountExistsWithDifferentFlags
		}
		return types.AccountExists
	}
	return types.AccountOK
}

func (s *Server) createTransfers(payload []byte) []byte {
	transfers, err := protocol.DecodeTransfers(payload)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var results []types.TransferResult
	for i, t := range transfers {
		outcome := s.applyTransfer(t)
		if outcome != types.TransferOK {
			results = append(results, types.TransferResult{Index: uint32(i), Outcome: outcome})
		}
	}
	return protocol.EncodeTransferResults(results)
}

func (s *Server) applyTransfer(t types.Transfer) types.CreateTransferOutcome {
	switch {
	case t.ID.IsZero():
		return types.TransferIDMustNotBeZero
	case t.Timestamp != 0:
		return types.TransferTimestampMustBeZero
	case t.DebitAccountID.IsZero():
		return types.TransferDebitAccountIDMustNotBeZero
	case t.CreditAccountID.IsZero():
		return types.TransferCreditAccountIDMustNotBeZero
	case t.DebitAccountID == t.CreditAccountID:
		return types.TransferAccountsMustBeDifferent
	case t.Ledger == 0:
		return types.TransferLedgerMustNotBeZero
	case t.Code == 0:
		return types.TransferCodeMustNotBeZero
	}
	if _, ok := s.transfers[t.ID]; ok {
		return types.TransferExists
	}
	debit, ok := s.accounts[t.DebitAccountID]
	if !ok {
		return types.TransferDebitAccountNotFound
	}
	credit, ok := s.accounts[t.CreditAccountID]
	if !ok {
		return types.TransferCreditAccountNotFound
	}
	if debit.Ledger != credit.Ledger || debit.Ledger != t.Ledger {
		return types.TransferAccountsMustHaveTheSameLedger
	}

	s.clock++
	t.Timestamp = s.clock
	if t.Flags&types.TransferPending != 0 {
		debit.DebitsPending = add128(debit.DebitsPending, t.Amount)
		credit.CreditsPending = add128(credit.CreditsPending, t.Amount)
	} else {
		debit.DebitsPosted = add128(debit.DebitsPosted, t.Amount)
		credit.CreditsPosted = add128(credit.CreditsPosted, t.Amount)
	}
	s.accounts[debit.ID] = debit
	s.accounts[credit.ID] = credit
	s.transfers[t.ID] = t
	return types.TransferOK
}

func (s *Server) lookupAccounts(payload []byte) []byte {
	ids, err := protocol.DecodeIDs(payload)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []types.Account
	for _, id := range ids {
		if a, ok := s.accounts[id]; ok {
			found = append(found, a)
		}
	}
	return protocol.EncodeAccounts(found)
}

// add128 saturates instead of wrapping; balance counters are
// monotonically non-decreasing and tests never get near the limit.
func add128(a, b types.Uint128) types.Uint128 {
	lo := a.Lo + b.Lo
	carry := uint64(0)
	if lo < a.Lo {
		carry = 1
	}
	hi := a.Hi + b.Hi + carry
	if hi < a.Hi {
		return types.MaxUint128
	}
	return types.Uint128{Lo: lo, Hi: hi}
}
