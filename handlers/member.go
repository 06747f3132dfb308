package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"binarymlm-go/income"
	"binarymlm-go/models"
	"binarymlm-go/rank"
	"binarymlm-go/tree"
)

type dashboardResponse struct {
	Member     models.Member         `json:"member"`
	Left       tree.Counts           `json:"left"`
	Right      tree.Counts           `json:"right"`
	Rank       *models.RankAndReward `json:"rank,omitempty"`
	NextRank   *models.RankAndReward `json:"next_rank,omitempty"`
	ActivePlan *models.MemberPlan    `json:"active_plan,omitempty"`
	Income     *income.Report        `json:"income"`
}

func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	_, member, ok := h.currentMember(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	left, right, err := h.services.Census.Legs(ctx, member.ID)
	if err != nil {
		sendAppError(w, err, "Failed to count downline")
		return
	}

	ranks, err := rank.Load(ctx, h.db)
	if err != nil {
		sendAppError(w, err, "Failed to load ranks")
		return
	}

	active, err := h.services.Catalog.Active(ctx, member.ID)
	if err != nil {
		sendAppError(w, err, "Failed to load active plan")
		return
	}

	report, err := income.Summarize(ctx, h.db, member.ID, "", 5)
	if err != nil {
		sendAppError(w, err, "Failed to load income")
		return
	}

	resp := dashboardResponse{
		Member:     *member,
		Left:       left,
		Right:      right,
		ActivePlan: active,
		Income:     report,
	}
	if cur, ok := ranks.Lookup(member.RankNo); ok {
		resp.Rank = &cur
	}
	for _, next := range ranks {
		if next.RankNo > member.RankNo {
			resp.NextRank = &next
			break
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) Genealogy(w http.ResponseWriter, r *http.Request) {
	_, member, ok := h.currentMember(w, r)
	if !ok {
		return
	}

	depth, _ := strconv.Atoi(r.URL.Query().Get("depth"))
	if depth <= 0 {
		depth = 3
	}
	view, err := h.services.Census.Genealogy(r.Context(), member.ID, depth)
	if err != nil {
		sendAppError(w, err, "Failed to load genealogy")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) IncomeHistory(w http.ResponseWriter, r *http.Request) {
	_, member, ok := h.currentMember(w, r)
	if !ok {
		return
	}

	typ := models.IncomeType(r.URL.Query().Get("type"))
	if typ != "" {
		known := false
		for _, t := range models.IncomeTypes {
			known = known || t == typ
		}
		if !known {
			sendError(w, http.StatusBadRequest, "Unknown income type", map[string]interface{}{"allowed": models.IncomeTypes})
			return
		}
	}
	limit, _ := pagination(r, 50)

	report, err := income.Summarize(r.Context(), h.db, member.ID, typ, limit)
	if err != nil {
		sendAppError(w, err, "Failed to load income")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ReferralLinks returns sign-up links that sponsor into either leg.
func (h *Handlers) ReferralLinks(w http.ResponseWriter, r *http.Request) {
	_, member, ok := h.currentMember(w, r)
	if !ok {
		return
	}

	link := func(side models.Position) string {
		q := url.Values{}
		q.Set("sponsor", member.Username)
		q.Set("position", string(side))
		return h.config.PublicBaseURL + "/register?" + q.Encode()
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"username": member.Username,
		"left":     link(models.PositionLeft),
		"right":    link(models.PositionRight),
	})
}

// SearchMembers looks up members by username, for picking a sponsor.
func (h *Handlers) SearchMembers(w http.ResponseWriter, r *http.Request) {
	found, err := h.services.Directory.Search(r.Context(), r.URL.Query().Get("q"), 0)
	if err != nil {
		sendAppError(w, err, "Failed to search members")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": found})
}
