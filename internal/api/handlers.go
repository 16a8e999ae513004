package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rentdesk/internal"
	"rentdesk/internal/listener"
	"rentdesk/internal/storage"
)

// Handler serves the human approval workflow: everything the pipeline
// wrote is read-only history here except the status transitions this
// API owns.
type Handler struct {
	db       *storage.DB
	listener *listener.Service
}

func NewHandler(db *storage.DB, lst *listener.Service) *Handler {
	return &Handler{db: db, listener: lst}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ListEmails(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := h.db.ListEmailRecords(storage.EmailFilter{
		Status: c.Query("status"),
		Sender: c.Query("sender"),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Limit:  limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"emails": records, "count": len(records)})
}

func (h *Handler) GetEmail(c *gin.Context) {
	rec, ok := h.lookupEmail(c)
	if !ok {
		return
	}

	var booking *internal.Booking
	if rec.BookingID != nil {
		b, err := h.db.GetBooking(*rec.BookingID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		booking = b
	}
	c.JSON(http.StatusOK, gin.H{"email": rec, "booking": booking})
}

func (h *Handler) GetEmailLog(c *gin.Context) {
	rec, ok := h.lookupEmail(c)
	if !ok {
		return
	}
	entries, err := h.db.ListActionLog(rec.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"log": entries})
}

type actionRequest struct {
	Note string `json:"note"`
}

func (h *Handler) ApproveEmail(c *gin.Context) {
	h.applyAction(c, internal.EmailStatusProcessed, internal.ActionApproved, internal.BookingStatusConfirmed)
}

func (h *Handler) RejectEmail(c *gin.Context) {
	h.applyAction(c, internal.EmailStatusRejected, internal.ActionRejected, internal.BookingStatusCancelled)
}

func (h *Handler) ArchiveEmail(c *gin.Context) {
	h.applyAction(c, internal.EmailStatusArchived, internal.ActionArchived, "")
}

// DeleteEmail soft-deletes: the record stays for audit, flagged as
// deleted, so the action log never dangles.
func (h *Handler) DeleteEmail(c *gin.Context) {
	h.applyAction(c, internal.EmailStatusArchived, internal.ActionDeleted, "")
}

func (h *Handler) applyAction(c *gin.Context, status, action, bookingStatus string) {
	rec, ok := h.lookupEmail(c)
	if !ok {
		return
	}

	var req actionRequest
	_ = c.ShouldBindJSON(&req)
	actor := c.GetHeader("X-Actor")
	if actor == "" {
		actor = "operator"
	}

	if err := h.db.ApplyEmailAction(rec.ID, status, action, actor, req.Note, bookingStatus); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": rec.ID, "status": status, "actionTaken": action})
}

func (h *Handler) CheckNow(c *gin.Context) {
	if h.listener == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listener not running"})
		return
	}
	started := h.listener.TriggerNow()
	c.JSON(http.StatusAccepted, gin.H{"started": started, "dropped": !started})
}

func (h *Handler) ListenerStatus(c *gin.Context) {
	if h.listener == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listener not running"})
		return
	}
	c.JSON(http.StatusOK, h.listener.Status())
}

func (h *Handler) lookupEmail(c *gin.Context) (*internal.EmailRecord, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
		return nil, false
	}
	rec, err := h.db.GetEmailRecord(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return rec, true
}
