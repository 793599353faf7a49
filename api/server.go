// Package api exposes the mixer over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/coinfold/mixer/core"
)

// Mixer is the orchestrator surface the API needs.
type Mixer interface {
	Submit(ctx context.Context, depositAddress, amount string) (string, error)
	StatusOf(ctx context.Context, requestId string) (core.Status, error)
}

// AddressGenerator mints deposit addresses for the registration flow.
type AddressGenerator interface {
	Generate() (string, error)
}

type Server struct {
	mixer     Mixer
	registry  core.DepositRegistry
	gateway   core.PaymentGateway
	addresses AddressGenerator
	log       core.Log

	houseAddress string
}

func NewServer(mixer Mixer, registry core.DepositRegistry, gateway core.PaymentGateway,
	addresses AddressGenerator, log core.Log) *Server {

	return &Server{
		mixer:        mixer,
		registry:     registry,
		gateway:      gateway,
		addresses:    addresses,
		log:          log,
		houseAddress: core.HouseAddress,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/v1/commands", s.handleCommands)
	mux.HandleFunc("/v1/register", s.handleRegister)
	mux.HandleFunc("/v1/send", s.handleSend)
	mux.HandleFunc("/v1/balance", s.handleBalance)
	mux.HandleFunc("/v1/mixingStatus", s.handleMixingStatus)
	return mux
}

type envelope struct {
	Status  string `json:"status"`
	Message any    `json:"message"`
}

func (s *Server) success(w http.ResponseWriter, msg any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(envelope{Status: "succeeded", Message: msg})
}

func (s *Server) fail(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{Status: "failed", Message: msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.success(w, map[string]string{"jobcoin mixer": "all systems operational"})
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	s.success(w, map[string]map[string]string{
		"/v1/register": {
			"payload":     `["address 1","address 2",...,"address n"]`,
			"description": "Registers n payout addresses. Returns a deposit address.",
		},
		"/v1/send": {
			"payload":     `{"fromAddress":"src","toAddress":"deposit","amount":x.xx}`,
			"description": "Moves amount into the mixer; toAddress must be a deposit address issued by /v1/register. Returns a requestId.",
		},
		"/v1/balance?address=<addr>": {
			"description": "Retrieves the balance at addr.",
		},
		"/v1/mixingStatus?requestId=<id>": {
			"description": "Reports complete once all fragments have been paid out, incomplete while processing, error for unknown ids.",
		},
	})
}

// handleRegister associates a validated set of payout addresses with a
// freshly minted deposit address. Duplicates are collapsed.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.fail(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.fail(w, http.StatusBadRequest, "payload is not an array of addresses")
		return
	}
	if len(raw) < 1 {
		s.fail(w, http.StatusUnprocessableEntity, "must register at least 1 address")
		return
	}

	seen := make(map[string]struct{}, len(raw))
	addresses := make([]string, 0, len(raw))
	for _, elem := range raw {
		var addr string
		if err := json.Unmarshal(elem, &addr); err != nil {
			s.fail(w, http.StatusBadRequest, fmt.Sprintf("%s is not a valid address", elem))
			return
		}
		if len(addr) < 1 {
			s.fail(w, http.StatusUnprocessableEntity, "provided an address which is an empty string")
			return
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		addresses = append(addresses, addr)
	}

	depositAddress, err := s.addresses.Generate()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, fmt.Sprintf("issue submitting request: %s", err))
		return
	}
	if err := s.registry.Register(r.Context(), depositAddress, addresses); err != nil {
		s.fail(w, http.StatusInternalServerError, fmt.Sprintf("issue submitting request: %s", err))
		return
	}

	s.log.Info().
		Str("depositAddress", depositAddress).
		Int("payoutAddresses", len(addresses)).
		Msg("registered payout addresses")

	s.success(w, map[string]string{"depositAddress": depositAddress})
}

type sendRequest struct {
	FromAddress string      `json:"fromAddress"`
	ToAddress   string      `json:"toAddress"`
	Amount      json.Number `json:"amount"`
}

// handleSend moves the funds source -> deposit -> house on the payment
// network, then submits the mixing request and returns its handle.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.fail(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "payload is not a json object")
		return
	}
	if len(req.FromAddress) < 1 {
		s.fail(w, http.StatusBadRequest, "payload missing [fromAddress]")
		return
	}
	if len(req.ToAddress) < 1 {
		s.fail(w, http.StatusBadRequest, "payload missing [toAddress]")
		return
	}
	if len(req.Amount) < 1 {
		s.fail(w, http.StatusBadRequest, "payload missing [amount]")
		return
	}

	registered, err := s.registry.Contains(r.Context(), req.ToAddress)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, fmt.Sprintf("issue submitting request: %s", err))
		return
	}
	if !registered {
		s.fail(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("[%s] is not a deposit address registered with the mixer", req.ToAddress))
		return
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil || !amount.IsPositive() {
		s.fail(w, core.StatusCode(core.ErrInvalidAmount), "amount must be greater than zero")
		return
	}

	// Source to deposit, then deposit to the house account the fragments
	// will later be paid out from.
	if err := s.gateway.Transfer(r.Context(), req.FromAddress, req.ToAddress, amount); err != nil {
		s.fail(w, core.StatusCode(err), fmt.Sprintf("payment network error: %s", err))
		return
	}
	if err := s.gateway.Transfer(r.Context(), req.ToAddress, s.houseAddress, amount); err != nil {
		s.fail(w, core.StatusCode(err), fmt.Sprintf("payment network error: %s", err))
		return
	}

	requestId, err := s.mixer.Submit(r.Context(), req.ToAddress, amount.String())
	if err != nil {
		s.fail(w, core.StatusCode(err), fmt.Sprintf("issue submitting request: %s", err))
		return
	}

	s.success(w, map[string]string{"requestId": requestId})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if len(address) < 1 {
		s.fail(w, http.StatusBadRequest, "payload missing [address]")
		return
	}

	balance, err := s.gateway.Balance(r.Context(), address)
	if err != nil {
		s.fail(w, core.StatusCode(err), fmt.Sprintf("payment network error: %s", err))
		return
	}

	s.success(w, map[string]string{"balance": balance.String()})
}

func (s *Server) handleMixingStatus(w http.ResponseWriter, r *http.Request) {
	requestId := r.URL.Query().Get("requestId")
	if len(requestId) < 1 {
		s.fail(w, http.StatusBadRequest, "payload missing [requestId]")
		return
	}

	status, err := s.mixer.StatusOf(r.Context(), requestId)
	if err != nil {
		s.fail(w, core.StatusCode(err), fmt.Sprintf("request id [%s] is not recognized", requestId))
		return
	}

	s.success(w, map[string]string{"status": string(status)})
}
