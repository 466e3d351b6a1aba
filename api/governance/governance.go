// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package governance

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/CodeChain-io/codechain-sub002/api/utils"
	"github.com/CodeChain-io/codechain-sub002/codechain"
	"github.com/CodeChain-io/codechain-sub002/gov"
)

type Governance struct {
	engine *gov.Engine
}

func New(engine *gov.Engine) *Governance {
	return &Governance{engine}
}

// parseHeight reads the optional ?height= query. Nil means the live state.
func parseHeight(req *http.Request) (*uint64, error) {
	raw := req.URL.Query().Get("height")
	if raw == "" {
		return nil, nil
	}
	height, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "height"))
	}
	return &height, nil
}

func (g *Governance) handleGetAuthors(w http.ResponseWriter, req *http.Request) error {
	height, err := parseHeight(req)
	if err != nil {
		return err
	}
	authors, err := g.engine.GetPossibleAuthors(height)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, authors)
}

func (g *Governance) handleGetCommittee(w http.ResponseWriter, req *http.Request) error {
	height, err := parseHeight(req)
	if err != nil {
		return err
	}
	members, err := g.engine.GetCommittee(height)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, members)
}

func (g *Governance) handleGetCandidates(w http.ResponseWriter, req *http.Request) error {
	height, err := parseHeight(req)
	if err != nil {
		return err
	}
	candidates, err := g.engine.GetCandidates(height)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, candidates)
}

func (g *Governance) handleGetJailed(w http.ResponseWriter, req *http.Request) error {
	height, err := parseHeight(req)
	if err != nil {
		return err
	}
	jailed, err := g.engine.GetJailed(height)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, jailed)
}

func (g *Governance) handleGetBanned(w http.ResponseWriter, req *http.Request) error {
	height, err := parseHeight(req)
	if err != nil {
		return err
	}
	banned, err := g.engine.GetBanned(height)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, banned)
}

func (g *Governance) handleGetDelegations(w http.ResponseWriter, req *http.Request) error {
	height, err := parseHeight(req)
	if err != nil {
		return err
	}
	var delegator *codechain.Address
	if raw := req.URL.Query().Get("delegator"); raw != "" {
		delegator, err = codechain.ParseAddress(raw)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "delegator"))
		}
	}
	delegations, err := g.engine.GetDelegations(delegator, height)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, delegations)
}

func (g *Governance) handleGetTerm(w http.ResponseWriter, req *http.Request) error {
	height, err := parseHeight(req)
	if err != nil {
		return err
	}
	meta, err := g.engine.GetTermMetadata(height)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, meta)
}

type account struct {
	Balance   uint64 `json:"balance"`
	Status    string `json:"status"`
	Deposit   uint64 `json:"deposit"`
	Delegated uint64 `json:"delegated"`
}

func (g *Governance) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := codechain.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	balance, err := g.engine.GetBalance(*addr)
	if err != nil {
		return err
	}
	entry, err := g.engine.GetEntry(*addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &account{
		Balance:   balance,
		Status:    entry.Status.String(),
		Deposit:   entry.Deposit,
		Delegated: entry.Delegated,
	})
}

func (g *Governance) handleGetParam(w http.ResponseWriter, req *http.Request) error {
	name := mux.Vars(req)["name"]
	value, err := g.engine.GetParam(name)
	if err != nil {
		if errors.Cause(err) == gov.ErrUnknownParam {
			return utils.NotFound(err)
		}
		return err
	}
	return utils.WriteJSON(w, map[string]uint64{name: value})
}

func (g *Governance) handleGetReceipts(w http.ResponseWriter, req *http.Request) error {
	number, err := strconv.ParseUint(mux.Vars(req)["number"], 10, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "number"))
	}
	receipts, err := g.engine.GetReceipts(number)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, receipts)
}

func (g *Governance) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/authors").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(g.handleGetAuthors))
	sub.Path("/committee").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(g.handleGetCommittee))
	sub.Path("/candidates").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(g.handleGetCandidates))
	sub.Path("/jailed").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(g.handleGetJailed))
	sub.Path("/banned").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(g.handleGetBanned))
	sub.Path("/delegations").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(g.handleGetDelegations))
	sub.Path("/term").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(g.handleGetTerm))
	sub.Path("/accounts/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(g.handleGetAccount))
	sub.Path("/params/{name}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(g.handleGetParam))
	sub.Path("/receipts/{number}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(g.handleGetReceipts))
}
