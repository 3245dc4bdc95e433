package api

import (
	"net/http"
	"strings"

	"wati-proxy/internal/database"
	"wati-proxy/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

type ContactHandler struct {
	store *database.ContactStore
}

func NewContactHandler(store *database.ContactStore) *ContactHandler {
	return &ContactHandler{store: store}
}

type ContactRequest struct {
	Name    string   `json:"name" binding:"required"`
	Phone   string   `json:"phone" binding:"required"`
	Email   string   `json:"email"`
	Company string   `json:"company"`
	Tags    []string `json:"tags"`
}

func (r ContactRequest) toModel() models.Contact {
	contact := models.Contact{
		Name:    r.Name,
		Phone:   r.Phone,
		Email:   optional(r.Email),
		Company: optional(r.Company),
		Tags:    datatypes.JSONSlice[string]{},
	}
	if r.Tags != nil {
		contact.Tags = datatypes.JSONSlice[string](r.Tags)
	}
	return contact
}

type BulkContactsRequest struct {
	Contacts []ContactRequest `json:"contacts" binding:"required,dive"`
}

// UpdateContactRequest carries only the fields the caller wants changed.
type UpdateContactRequest struct {
	Name    *string   `json:"name"`
	Phone   *string   `json:"phone"`
	Email   *string   `json:"email"`
	Company *string   `json:"company"`
	Tags    *[]string `json:"tags"`
}

func (r UpdateContactRequest) fields() (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if r.Name != nil {
		if strings.TrimSpace(*r.Name) == "" {
			return nil, invalid("name cannot be empty")
		}
		fields["name"] = *r.Name
	}
	if r.Phone != nil {
		if strings.TrimSpace(*r.Phone) == "" {
			return nil, invalid("phone cannot be empty")
		}
		fields["phone"] = *r.Phone
	}
	if r.Email != nil {
		fields["email"] = optional(*r.Email)
	}
	if r.Company != nil {
		fields["company"] = optional(*r.Company)
	}
	if r.Tags != nil {
		tags := datatypes.JSONSlice[string]{}
		if *r.Tags != nil {
			tags = datatypes.JSONSlice[string](*r.Tags)
		}
		fields["tags"] = tags
	}
	return fields, nil
}

func (h *ContactHandler) GetContacts(c *gin.Context) {
	limit := queryInt(c, "limit", defaultContactLimit)
	contacts, err := h.store.List(c.Request.Context(), limit, queryOffset(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	contact := req.toModel()
	if err := h.store.Create(c.Request.Context(), &contact); err != nil {
		respondError(c, err)
		return
	}
	log.Info().Str("phone", contact.Phone).Msg("Contact created")
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) BulkUpsertContacts(c *gin.Context) {
	var req BulkContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	batch := make([]models.Contact, len(req.Contacts))
	for i, r := range req.Contacts {
		batch[i] = r.toModel()
	}

	saved, err := h.store.Upsert(c.Request.Context(), batch)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Info().Int("count", len(saved)).Msg("Contacts upserted")
	c.JSON(http.StatusOK, saved)
}

func (h *ContactHandler) UpdateContact(c *gin.Context) {
	id, err := uuidParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	fields, err := req.fields()
	if err != nil {
		respondError(c, err)
		return
	}

	contact, err := h.store.Update(c.Request.Context(), id, fields)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) SearchContacts(c *gin.Context) {
	contacts, err := h.store.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *ContactHandler) DeleteContact(c *gin.Context) {
	id, err := uuidParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	log.Info().Str("id", id.String()).Msg("Contact deleted")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// optional maps an empty string to NULL.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
