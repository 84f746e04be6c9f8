// Package rest is the HTTP surface of the service: liquidity routes over the
// DEX adapters and pay-to-learn routes over the payment store.
package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	liquidityApp "github.com/fd1az/pool-service/business/liquidity/app"
	"github.com/fd1az/pool-service/business/liquidity/domain"
	paymentApp "github.com/fd1az/pool-service/business/payment/app"
	paymentDomain "github.com/fd1az/pool-service/business/payment/domain"
	"github.com/fd1az/pool-service/internal/apperror"
	"github.com/fd1az/pool-service/internal/logger"
)

// Server routes requests to the liquidity and payment services.
type Server struct {
	router       *mux.Router
	liquidity    *liquidityApp.LiquidityService
	payments     *paymentApp.PayToLearnService
	transactions *paymentApp.TransactionService
	log          logger.LoggerInterface
}

// NewServer creates a Server with every route registered.
func NewServer(
	liquidity *liquidityApp.LiquidityService,
	payments *paymentApp.PayToLearnService,
	transactions *paymentApp.TransactionService,
	log logger.LoggerInterface,
) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		liquidity:    liquidity,
		payments:     payments,
		transactions: transactions,
		log:          log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.logRequests)

	s.router.HandleFunc("/", s.handleRoot()).Methods(http.MethodGet)
	s.router.HandleFunc("/api/health", s.handleHealth()).Methods(http.MethodGet)

	s.router.HandleFunc("/api/bluefin/liquidity-positions", s.handlePositions(domain.DexBluefin)).Methods(http.MethodGet)
	s.router.HandleFunc("/api/flowx/liquidity-positions", s.handlePositions(domain.DexFlowX)).Methods(http.MethodGet)
	s.router.HandleFunc("/api/liquidity-positions", s.handleCombinedPositions()).Methods(http.MethodGet)
	s.router.HandleFunc("/api/flowx/position-value", s.handlePositionValue()).Methods(http.MethodGet)
	s.router.HandleFunc("/api/pools/batch", s.handleBatchPoolStats()).Methods(http.MethodPost)
	s.router.HandleFunc("/api/pools/{pool_address}/stats", s.handlePoolStats()).Methods(http.MethodGet)

	pay := s.router.PathPrefix("/api/pay").Subrouter()
	pay.HandleFunc("/package", s.handleCreatePackage()).Methods(http.MethodPost)
	pay.HandleFunc("/package/{id}", s.handleUpdatePackage()).Methods(http.MethodPut)
	pay.HandleFunc("/package/{id}", s.handleDeletePackage()).Methods(http.MethodDelete)
	pay.HandleFunc("/package/{id}", s.handleGetPackage()).Methods(http.MethodGet)
	pay.HandleFunc("/packages", s.handleListPackages()).Methods(http.MethodGet)
	pay.HandleFunc("/user/{address}/style", s.handleSelectStyle()).Methods(http.MethodPost)
	pay.HandleFunc("/user/{address}/style", s.handleGetStyle()).Methods(http.MethodGet)
	pay.HandleFunc("/user/{address}/purchase", s.handleLogPurchase()).Methods(http.MethodPost)
	pay.HandleFunc("/user/{address}/purchases", s.handlePurchasedPackages()).Methods(http.MethodGet)
	pay.HandleFunc("/user/{address}/hasPurchased/{packageId}", s.handleHasPurchased()).Methods(http.MethodGet)
	pay.HandleFunc("/user/{address}/transaction", s.handleLogTransaction()).Methods(http.MethodPost)
	pay.HandleFunc("/user/{address}/transactions", s.handleUserTransactions()).Methods(http.MethodGet)
	pay.HandleFunc("/transactions", s.handleAllTransactions()).Methods(http.MethodGet)
}

// Handler wraps the router with CORS and OpenTelemetry instrumentation.
// An empty origin list allows every origin.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return otelhttp.NewHandler(c.Handler(s.router), "pool-service")
}

func (s *Server) handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, "Hello Nim")
	}
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// --- liquidity ---

func (s *Server) handlePositions(dex domain.Dex) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		positions, err := s.liquidity.Positions(r.Context(), dex, r.URL.Query().Get("address"))
		if err != nil {
			s.writeError(w, r, msgPositions, err)
			return
		}
		writeJSON(w, http.StatusOK, positions)
	}
}

func (s *Server) handleCombinedPositions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		combined, err := s.liquidity.CombinedPositions(r.Context(), r.URL.Query().Get("address"))
		if err != nil {
			s.writeError(w, r, msgCombinedPositions, err)
			return
		}
		writeJSON(w, http.StatusOK, combined)
	}
}

func (s *Server) handlePositionValue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := s.liquidity.PositionValue(r.Context(), r.URL.Query().Get("address"))
		if err != nil {
			s.writeError(w, r, msgPositionValue, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func (s *Server) handlePoolStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poolID := mux.Vars(r)["pool_address"]
		stats, err := s.liquidity.PoolStats(r.Context(), r.URL.Query().Get("source"), poolID)
		if err != nil {
			s.writeError(w, r, msgPoolStats, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

type batchRequest struct {
	PoolIDs json.RawMessage `json:"poolIds"`
	Source  string          `json:"source"`
}

func (s *Server) handleBatchPoolStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, r, msgBatchPoolStats, err)
			return
		}

		// Anything other than a JSON array of strings counts as missing.
		var poolIDs []string
		if len(req.PoolIDs) > 0 {
			if err := json.Unmarshal(req.PoolIDs, &poolIDs); err != nil {
				poolIDs = nil
			}
		}

		stats, err := s.liquidity.BatchPoolStats(r.Context(), req.Source, poolIDs)
		if err != nil {
			s.writeError(w, r, msgBatchPoolStats, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// --- packages ---

func (s *Server) handleCreatePackage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pkg paymentDomain.Package
		if err := decodeBody(r, &pkg); err != nil {
			s.writeError(w, r, msgCreatePackage, err)
			return
		}
		created, err := s.payments.CreatePackage(r.Context(), pkg)
		if err != nil {
			s.writeError(w, r, msgCreatePackage, err)
			return
		}
		writeJSON(w, http.StatusOK, created)
	}
}

func (s *Server) handleUpdatePackage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update paymentDomain.PackageUpdate
		if err := decodeBody(r, &update); err != nil {
			s.writeError(w, r, msgUpdatePackage, err)
			return
		}
		updated, err := s.payments.UpdatePackage(r.Context(), mux.Vars(r)["id"], update)
		if err != nil {
			s.writeError(w, r, msgUpdatePackage, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) handleDeletePackage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := s.payments.DeletePackage(r.Context(), id); err != nil {
			s.writeError(w, r, msgDeletePackage, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
	}
}

func (s *Server) handleListPackages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pkgs, err := s.payments.ListPackages(r.Context())
		if err != nil {
			s.writeError(w, r, msgListPackages, err)
			return
		}
		writeJSON(w, http.StatusOK, pkgs)
	}
}

func (s *Server) handleGetPackage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pkg, err := s.payments.GetPackage(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			s.writeError(w, r, msgGetPackage, err)
			return
		}
		writeJSON(w, http.StatusOK, pkg)
	}
}

// --- user styles, purchases and transactions ---

type styleRequest struct {
	Style *int `json:"style"`
}

func (s *Server) handleSelectStyle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req styleRequest
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, r, msgSelectStyle, err)
			return
		}
		if req.Style == nil {
			s.writeError(w, r, msgSelectStyle, apperror.Validation(apperror.CodeRequiredField, "style"))
			return
		}
		selected, err := s.payments.SelectStyle(r.Context(), mux.Vars(r)["address"], *req.Style)
		if err != nil {
			s.writeError(w, r, msgSelectStyle, err)
			return
		}
		writeJSON(w, http.StatusOK, selected)
	}
}

func (s *Server) handleGetStyle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		style, err := s.payments.GetUserStyle(r.Context(), mux.Vars(r)["address"])
		if err != nil {
			s.writeError(w, r, msgGetStyle, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]*int{"style": style})
	}
}

func (s *Server) handleLogPurchase() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var purchase paymentDomain.Purchase
		if err := decodeBody(r, &purchase); err != nil {
			s.writeError(w, r, msgLogPurchase, err)
			return
		}
		purchase.UserAddress = mux.Vars(r)["address"]

		logged, err := s.payments.LogPurchase(r.Context(), purchase)
		if err != nil {
			s.writeError(w, r, msgLogPurchase, err)
			return
		}
		writeJSON(w, http.StatusOK, logged)
	}
}

func (s *Server) handlePurchasedPackages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := s.payments.PurchasedPackageIDs(r.Context(), mux.Vars(r)["address"])
		if err != nil {
			s.writeError(w, r, msgPurchasedPackages, err)
			return
		}
		writeJSON(w, http.StatusOK, ids)
	}
}

func (s *Server) handleHasPurchased() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		purchased, err := s.payments.HasPurchased(r.Context(), vars["address"], vars["packageId"])
		if err != nil {
			s.writeError(w, r, msgHasPurchased, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"purchased": purchased})
	}
}

func (s *Server) handleLogTransaction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var tx paymentDomain.Transaction
		if err := decodeBody(r, &tx); err != nil {
			s.writeError(w, r, msgLogTransaction, err)
			return
		}
		tx.UserAddress = mux.Vars(r)["address"]

		logged, err := s.transactions.LogTransaction(r.Context(), tx)
		if err != nil {
			s.writeError(w, r, msgLogTransaction, err)
			return
		}
		writeJSON(w, http.StatusOK, logged)
	}
}

func (s *Server) handleUserTransactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txs, err := s.transactions.UserTransactions(r.Context(), mux.Vars(r)["address"])
		if err != nil {
			s.writeError(w, r, msgUserTransactions, err)
			return
		}
		writeJSON(w, http.StatusOK, txs)
	}
}

func (s *Server) handleAllTransactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txs, err := s.transactions.AllTransactions(r.Context())
		if err != nil {
			s.writeError(w, r, msgAllTransactions, err)
			return
		}
		writeJSON(w, http.StatusOK, txs)
	}
}
