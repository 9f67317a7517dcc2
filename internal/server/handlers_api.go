package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/WolfgangSpahn/interaktiv-backend/internal/announce"
	apperrors "github.com/WolfgangSpahn/interaktiv-backend/internal/errors"
	"github.com/WolfgangSpahn/interaktiv-backend/internal/store"
)

// publishJSON marshals payload and publishes it under the given category.
func (s *Server) publishJSON(category string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return apperrors.InternalError("failed to encode event payload", err)
	}
	return s.broadcaster.Publish(announce.Event{Category: category, Payload: string(data)})
}

func statusSuccess(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "success", "message": message})
}

// --- Nickname handlers ---

type nicknameRequest struct {
	User string `json:"user"`
	UUID string `json:"uuid"`
}

func (s *Server) handlePostNickname(c echo.Context) error {
	var req nicknameRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("request body must be JSON")
	}
	if req.User == "" {
		return apperrors.ValidationError("user is required")
	}
	userUUID, err := uuid.Parse(req.UUID)
	if err != nil {
		return apperrors.ValidationError("invalid UUID format").WithField("uuid", req.UUID)
	}

	s.store.SetNickname(userUUID, req.User)

	if err := s.publishJSON("NICKNAME", map[string]any{"nicknames": s.store.Nicknames()}); err != nil {
		return err
	}
	return statusSuccess(c, "Data received")
}

func (s *Server) handleGetNickname(c echo.Context) error {
	userUUID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		return apperrors.ValidationError("invalid UUID format").WithField("uuid", c.Param("uuid"))
	}

	name, ok := s.store.Nickname(userUUID)
	if !ok {
		return c.JSON(http.StatusOK, map[string]string{
			"warning": fmt.Sprintf("No name found for the given uuid: %s", userUUID),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"nickname": name})
}

func (s *Server) handleGetNicknames(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"nicknames": s.store.Nicknames()})
}

// --- Likert handlers ---

type likertRequest struct {
	Likert string `json:"likert"`
	User   string `json:"user"`
	Value  string `json:"value"`
}

func (s *Server) handlePostLikert(c echo.Context) error {
	var req likertRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("request body must be JSON")
	}
	if req.Likert == "" || req.User == "" || req.Value == "" {
		return apperrors.ValidationError("likert, user and value are required")
	}

	pct, err := s.store.RecordVote(req.Likert, req.User, req.Value)
	switch {
	case errors.Is(err, store.ErrUnknownUser):
		return apperrors.ValidationError("unknown user can not vote").WithField("user", req.User)
	case errors.Is(err, store.ErrInvalidScore):
		return apperrors.ValidationError("likert value must be a score between 0 and 4").WithField("value", req.Value)
	case err != nil:
		return apperrors.InternalError("failed to record vote", err)
	}

	if err := s.publishJSON("A-"+req.Likert, map[string]int{"percentage": pct}); err != nil {
		return err
	}
	return statusSuccess(c, fmt.Sprintf("Data received for key %s", req.Likert))
}

func (s *Server) handleGetLikerts(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"likert": s.store.LikertScores()})
}

func (s *Server) handleGetLikert(c echo.Context) error {
	id := c.Param("id")
	pct, ok := s.store.LikertPercentage(id)
	if !ok {
		return c.JSON(http.StatusOK, map[string]string{
			"warning": fmt.Sprintf("No likert scores found for the given likert id: %s", id),
		})
	}
	return c.JSON(http.StatusOK, map[string]int{"likert": pct})
}

// --- Answer handlers ---

type answerRequest struct {
	Answer string `json:"answer"`
	Qid    string `json:"qid"`
	User   string `json:"user"`
}

func (s *Server) handlePostAnswer(c echo.Context) error {
	var req answerRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("request body must be JSON")
	}
	if req.Qid == "" || req.User == "" {
		return apperrors.ValidationError("qid and user are required")
	}

	all, err := s.store.RecordAnswer(req.Qid, req.User, req.Answer)
	switch {
	case errors.Is(err, store.ErrUnknownUser):
		return apperrors.ValidationError("unknown user can not answer").WithField("user", req.User)
	case err != nil:
		return apperrors.InternalError("failed to record answer", err)
	}

	if err := s.publishJSON("A-"+req.Qid, map[string]any{"qid": req.Qid, "answers": all}); err != nil {
		return err
	}
	return statusSuccess(c, "Data received")
}

func (s *Server) handleGetAnswer(c echo.Context) error {
	qid := c.Param("qid")
	answers, ok := s.store.Answers(qid)
	if !ok {
		return c.JSON(http.StatusOK, map[string]string{
			"warning": fmt.Sprintf("No answers found for the given question: %s", qid),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"answers": answers})
}

func (s *Server) handleGetAnswers(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"answers": s.store.AllAnswers()})
}
