package portal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
)

// RequestEdits is the editable subset of a request as the form names it.
// Empty fields are left as stored. Notes is a pointer so it can be cleared:
// nil keeps the stored notes, a pointer to "" blanks them.
type RequestEdits struct {
	Notes    *string
	Priority string
	Status   string
}

// requestPatch is the storage-side shape of RequestEdits.
type requestPatch struct {
	Notes         *string `json:"notes,omitempty"`
	RequestStatus *string `json:"request_status,omitempty"`
	Status        *string `json:"status,omitempty"`
	Version       *uint   `json:"version,omitempty"`
}

// RequestController owns one change request: its edit form, SAP assignment
// and the lock between editing and chatting.
type RequestController struct {
	api *API
	id  uint

	mu       sync.Mutex
	req      *Request
	notFound bool
	editing  bool
	saving   bool
	inline   error
}

func NewRequestController(api *API, id uint) *RequestController {
	return &RequestController{api: api, id: id}
}

// Load fetches the request. A missing request puts the controller in the
// not-found state and still returns the error.
func (rc *RequestController) Load(ctx context.Context) error {
	req, err := rc.api.Request(ctx, rc.id)

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if err != nil {
		if IsNotFound(err) {
			rc.req = nil
			rc.notFound = true
		}
		return err
	}
	rc.req = req
	rc.notFound = false
	return nil
}

func (rc *RequestController) ID() uint { return rc.id }

// Request returns a copy of the last loaded request, or nil.
func (rc *RequestController) Request() *Request {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.req == nil {
		return nil
	}
	r := *rc.req
	return &r
}

func (rc *RequestController) NotFound() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.notFound
}

// BeginEdit opens the edit form. Chatting is blocked until it closes.
func (rc *RequestController) BeginEdit() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.editing = true
	rc.inline = nil
}

func (rc *RequestController) CancelEdit() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.editing = false
	rc.inline = nil
}

func (rc *RequestController) Editing() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.editing
}

// InlineError is the error of the last failed save, shown in the form.
func (rc *RequestController) InlineError() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.inline
}

// CanSave reports whether e may be submitted and, if not, why. The save
// control should be disabled while it returns false.
func (rc *RequestController) CanSave(e RequestEdits) (bool, string) {
	rc.mu.Lock()
	req := rc.req
	rc.mu.Unlock()
	if req == nil {
		return false, "request is not loaded"
	}
	return canSave(rc.api.Session.Role(), req, e)
}

func canSave(role string, req *Request, e RequestEdits) (bool, string) {
	if e.Priority != "" && !validPriority(e.Priority) {
		return false, "priority must be High, Medium or Low"
	}
	if e.Status != "" && !validStatus(e.Status) {
		return false, "status must be Open, Closed or Rejected"
	}
	if e.Status == StatusClosed && role == "MDGT" && !req.HasSapItem() {
		return false, "assign a SAP item before closing this request"
	}
	return true, ""
}

func validStatus(s string) bool {
	return s == StatusOpen || s == StatusClosed || s == StatusRejected
}

func validPriority(p string) bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// SaveEdits sends the edits as a partial update carrying the last seen
// version, then refetches. On failure the form stays open and the error is
// kept for inline display.
func (rc *RequestController) SaveEdits(ctx context.Context, e RequestEdits) error {
	rc.mu.Lock()
	if rc.saving {
		rc.mu.Unlock()
		return ErrBusy
	}
	req := rc.req
	if req == nil {
		rc.mu.Unlock()
		return &NotFoundError{Msg: "request is not loaded"}
	}
	rc.saving = true
	rc.mu.Unlock()

	err := rc.save(ctx, req, e)

	rc.mu.Lock()
	rc.saving = false
	if err != nil {
		rc.inline = err
		rc.mu.Unlock()
		return err
	}
	rc.editing = false
	rc.inline = nil
	rc.mu.Unlock()

	return rc.Load(ctx)
}

func (rc *RequestController) save(ctx context.Context, req *Request, e RequestEdits) error {
	if ok, reason := canSave(rc.api.Session.Role(), req, e); !ok {
		return &ValidationError{Msg: reason}
	}

	patch := requestPatch{Notes: e.Notes}
	if e.Priority != "" {
		patch.RequestStatus = &e.Priority
	}
	if e.Status != "" {
		patch.Status = &e.Status
	}
	if req.Version != 0 {
		v := req.Version
		patch.Version = &v
	}
	return rc.api.Client.Do(ctx, http.MethodPut, requestPath(rc.id), patch, nil)
}

// AssignSapItem attaches an SAP item and refreshes the request.
func (rc *RequestController) AssignSapItem(ctx context.Context, sapID string) error {
	sapID = strings.TrimSpace(sapID)
	if sapID == "" {
		return &ValidationError{Msg: "SAP item is required"}
	}
	body := map[string]string{"sap_item": sapID}
	if err := rc.api.Client.Do(ctx, http.MethodPut, requestPath(rc.id)+"assign-sap/", body, nil); err != nil {
		return err
	}
	return rc.Load(ctx)
}

// SendMessage posts to the conversation. It is refused while the edit form
// is open.
func (rc *RequestController) SendMessage(ctx context.Context, text string) error {
	if rc.Editing() {
		return ErrEditing
	}
	return postMessage(ctx, rc.api.Client, rc.id, text)
}

func postMessage(ctx context.Context, client *Client, id uint, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &ValidationError{Msg: "message is empty"}
	}
	body := map[string]string{"message": text}
	err := client.Do(ctx, http.MethodPost, requestPath(id)+"messages/", body, nil)
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return &NotFoundError{Msg: "request no longer exists"}
	}
	return err
}
