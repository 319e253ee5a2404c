// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"code.vegaprotocol.io/betvex/core/contract"
	"code.vegaprotocol.io/betvex/core/events"
	"code.vegaprotocol.io/betvex/core/matches"
	"code.vegaprotocol.io/betvex/core/processor"
	"code.vegaprotocol.io/betvex/core/txn"
	"code.vegaprotocol.io/betvex/core/types"
	vghttp "code.vegaprotocol.io/betvex/libs/http"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"
	"code.vegaprotocol.io/betvex/metrics"

	"github.com/julienschmidt/httprouter"
)

// Processor executes transactions and read only queries.
type Processor interface {
	Submit(ctx context.Context, tx *txn.Tx) (*processor.Result, error)
	Query(ctx context.Context, f func() (any, error)) (any, error)
}

// Views are the read only methods of the contract. They only run inside
// Processor.Query.
type Views interface {
	Info() contract.Info
	GetMatches(from, limit uint64) []*matches.View
	GetMatch(matchID string) (*matches.View, error)
	GetPotentialWinnings(matchID string, team types.Team, amount *num.Uint) (*num.Uint, error)
	GetBet(bettor string, betID uint64) (*types.Bet, error)
	GetUsersBets(bettor string, from, limit uint64) ([]*types.Bet, error)
	GetUserStakeInfo(party string) (*types.UserStake, error)
	GetStakingQueue() []*types.MatchStakeInfo
	GetFunds() contract.Funds
	GetSagas() contract.Sagas
	GetLossSaga(matchID string) (*types.LossSaga, error)
}

// Events serves the recent events of the broker.
type Events interface {
	Since(seq uint64, limit int) []*events.BusEvent
	Wait() <-chan struct{}
}

type Server struct {
	*httprouter.Router

	ctx   context.Context
	log   *logging.Logger
	cfg   Config
	proc  Processor
	views Views
	evts  Events
	rl    *vghttp.RateLimit
	srv   *http.Server
}

func New(ctx context.Context, log *logging.Logger, cfg Config, proc Processor, views Views, evts Events) (*Server, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	rl, err := vghttp.NewRateLimit(ctx, cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Router: httprouter.New(),
		ctx:    ctx,
		log:    log,
		cfg:    cfg,
		proc:   proc,
		views:  views,
		evts:   evts,
		rl:     rl,
	}

	s.POST("/api/v1/transactions", s.SubmitTransaction)
	s.GET("/api/v1/info", s.Info)
	s.GET("/api/v1/matches", s.Matches)
	s.GET("/api/v1/matches/:id", s.Match)
	s.GET("/api/v1/matches/:id/potential-winnings", s.PotentialWinnings)
	s.GET("/api/v1/bets/:bettor", s.UserBets)
	s.GET("/api/v1/bets/:bettor/:id", s.Bet)
	s.GET("/api/v1/stakes/:party", s.Stake)
	s.GET("/api/v1/staking-queue", s.StakingQueue)
	s.GET("/api/v1/funds", s.Funds)
	s.GET("/api/v1/sagas", s.Sagas)
	s.GET("/api/v1/sagas/:id", s.LossSaga)
	s.GET("/api/v1/events", s.Events)
	s.GET("/api/v1/events/stream", s.StreamEvents)

	s.srv = &http.Server{
		Addr:              net.JoinHostPort(cfg.IP, fmt.Sprint(cfg.Port)),
		Handler:           vghttp.CORS(cfg.CORS, s),
		ReadHeaderTimeout: cfg.Timeout.Get(),
	}
	return s, nil
}

func (s *Server) Start() error {
	s.log.Info("starting api server", logging.String("address", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) SubmitTransaction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer metrics.StartAPIRequestAndTimeREST("SubmitTransaction")()

	if err := s.rl.NewRequest("tx", remoteIP(r)); err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrRateLimited, err))
		return
	}
	tx := &txn.Tx{}
	if err := unmarshalBody(r, tx); err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout.Get())
	defer cancel()
	res, err := s.proc.Submit(ctx, tx)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if res.Err() != nil {
		status = statusOf(res.Err())
	}
	writeJSON(w, res, status)
}

// query runs f inside the processor and writes its outcome.
func (s *Server) query(w http.ResponseWriter, r *http.Request, name string, f func() (any, error)) {
	defer metrics.StartAPIRequestAndTimeREST(name)()

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout.Get())
	defer cancel()
	v, err := s.proc.Query(ctx, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, v, http.StatusOK)
}

func (s *Server) Info(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.query(w, r, "Info", func() (any, error) {
		return s.views.Info(), nil
	})
}

func (s *Server) Matches(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	from, limit, err := s.page(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.query(w, r, "Matches", func() (any, error) {
		return s.views.GetMatches(from, limit), nil
	})
}

func (s *Server) Match(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.query(w, r, "Match", func() (any, error) {
		return s.views.GetMatch(ps.ByName("id"))
	})
}

func (s *Server) PotentialWinnings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	team, err := types.TeamFromString(r.URL.Query().Get("team"))
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := amountParam(r, "amount")
	if err != nil {
		writeError(w, err)
		return
	}
	s.query(w, r, "PotentialWinnings", func() (any, error) {
		return s.views.GetPotentialWinnings(ps.ByName("id"), team, amount)
	})
}

func (s *Server) UserBets(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	from, limit, err := s.page(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.query(w, r, "UserBets", func() (any, error) {
		return s.views.GetUsersBets(ps.ByName("bettor"), from, limit)
	})
}

func (s *Server) Bet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := uintParam(ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.query(w, r, "Bet", func() (any, error) {
		return s.views.GetBet(ps.ByName("bettor"), id)
	})
}

func (s *Server) Stake(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.query(w, r, "Stake", func() (any, error) {
		return s.views.GetUserStakeInfo(ps.ByName("party"))
	})
}

func (s *Server) StakingQueue(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.query(w, r, "StakingQueue", func() (any, error) {
		return s.views.GetStakingQueue(), nil
	})
}

func (s *Server) Funds(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.query(w, r, "Funds", func() (any, error) {
		return s.views.GetFunds(), nil
	})
}

func (s *Server) Sagas(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.query(w, r, "Sagas", func() (any, error) {
		return s.views.GetSagas(), nil
	})
}

func (s *Server) LossSaga(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.query(w, r, "LossSaga", func() (any, error) {
		return s.views.GetLossSaga(ps.ByName("id"))
	})
}

// Events doesn't go through the processor, the broker is safe for
// concurrent use.
func (s *Server) Events(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer metrics.StartAPIRequestAndTimeREST("Events")()

	since, err := sinceParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	_, limit, err := s.page(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.evts.Since(since, int(limit)), http.StatusOK)
}

func (s *Server) page(r *http.Request) (from, limit uint64, err error) {
	q := r.URL.Query()
	limit = s.cfg.PageSize
	if v := q.Get("from"); len(v) > 0 {
		if from, err = uintParam(v); err != nil {
			return 0, 0, err
		}
	}
	if v := q.Get("limit"); len(v) > 0 {
		if limit, err = uintParam(v); err != nil {
			return 0, 0, err
		}
	}
	return from, limit, nil
}

func sinceParam(r *http.Request) (uint64, error) {
	v := r.URL.Query().Get("since")
	if len(v) == 0 {
		return 0, nil
	}
	return uintParam(v)
}

func uintParam(v string) (uint64, error) {
	var n uint64
	if _, err := fmt.Sscan(v, &n); err != nil {
		return 0, fmt.Errorf("%w: %q is not an unsigned integer", ErrInvalidRequest, v)
	}
	return n, nil
}

func amountParam(r *http.Request, name string) (*num.Uint, error) {
	v := r.URL.Query().Get(name)
	amount, overflow := num.UintFromString(v, 10)
	if len(v) == 0 || overflow {
		return nil, fmt.Errorf("%w: invalid %s %q", ErrInvalidRequest, name, v)
	}
	return amount, nil
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func unmarshalBody(r *http.Request, into any) error {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return ErrInvalidRequest
	}
	return json.Unmarshal(body, into)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, HTTPError{ErrorStr: err.Error()}, statusOf(err))
}

func writeJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	buf, _ := json.Marshal(data)
	_, _ = w.Write(buf)
}
