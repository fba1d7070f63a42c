package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/models"
	"github.com/diewo77/go-stockpos/internal/services"
	"github.com/diewo77/go-stockpos/validation"
)

// entityInput is the request body of a plain CRUD resource.
type entityInput[T any] interface {
	Validate() validation.Violations
	Apply(*T)
}

// EntityHandler serves list/create/get/update/delete for simple records
// that need no service logic.
type EntityHandler[T any, I entityInput[T]] struct {
	db     *gorm.DB
	search []string
	// inUse, when set, blocks deletion of referenced rows.
	inUse func(tx *gorm.DB, id uint) (bool, error)
}

func (h *EntityHandler[T, I]) List(w http.ResponseWriter, r *http.Request) {
	page := httpx.PageParams(r)
	q := h.db.WithContext(r.Context()).Model(new(T))
	if term := strings.TrimSpace(r.URL.Query().Get("q")); term != "" && len(h.search) > 0 {
		like := "%" + strings.ToLower(term) + "%"
		clauses := make([]string, 0, len(h.search))
		args := make([]any, 0, len(h.search))
		for _, col := range h.search {
			clauses = append(clauses, "LOWER("+col+") LIKE ?")
			args = append(args, like)
		}
		q = q.Where(strings.Join(clauses, " OR "), args...)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		writeError(w, r, err)
		return
	}
	items := []T{}
	if err := q.Order("name ASC, id ASC").Limit(page.Limit).Offset(page.Offset).Find(&items).Error; err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, items, total, page)
}

func (h *EntityHandler[T, I]) Create(w http.ResponseWriter, r *http.Request) {
	var in I
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	if v := in.Validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	item := new(T)
	in.Apply(item)
	if err := h.db.WithContext(r.Context()).Create(item).Error; err != nil {
		writeError(w, r, conflictOr(err))
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *EntityHandler[T, I]) load(w http.ResponseWriter, r *http.Request) (*T, bool) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return nil, false
	}
	item := new(T)
	if err := h.db.WithContext(r.Context()).First(item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = services.ErrNotFound
		}
		writeError(w, r, err)
		return nil, false
	}
	return item, true
}

func (h *EntityHandler[T, I]) Get(w http.ResponseWriter, r *http.Request) {
	if item, ok := h.load(w, r); ok {
		httpx.JSON(w, http.StatusOK, item)
	}
}

func (h *EntityHandler[T, I]) Update(w http.ResponseWriter, r *http.Request) {
	item, ok := h.load(w, r)
	if !ok {
		return
	}
	var in I
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.BadJSON(w, err)
		return
	}
	if v := in.Validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	in.Apply(item)
	if err := h.db.WithContext(r.Context()).Save(item).Error; err != nil {
		writeError(w, r, conflictOr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *EntityHandler[T, I]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	err := h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if h.inUse != nil {
			used, err := h.inUse(tx, id)
			if err != nil {
				return err
			}
			if used {
				return services.ErrInUse
			}
		}
		res := tx.Delete(new(T), id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return services.ErrNotFound
		}
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// conflictOr reports unique-constraint failures as duplicate names.
func conflictOr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return services.ErrDuplicateName
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key") {
		return services.ErrDuplicateName
	}
	return err
}

func referenced(model any, column string) func(tx *gorm.DB, id uint) (bool, error) {
	return func(tx *gorm.DB, id uint) (bool, error) {
		var n int64
		err := tx.Model(model).Where(column+" = ?", id).Count(&n).Error
		return n > 0, err
	}
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (in CategoryInput) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", strings.TrimSpace(in.Name), v)
	validation.MaxLen("name", in.Name, 100, v)
	validation.MaxLen("description", in.Description, 500, v)
	return v
}

func (in CategoryInput) Apply(c *models.Category) {
	c.Name = strings.TrimSpace(in.Name)
	c.Description = in.Description
}

type SupplierInput struct {
	Name        string `json:"name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

func (in SupplierInput) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", strings.TrimSpace(in.Name), v)
	validation.MaxLen("name", in.Name, 255, v)
	if in.Email != "" {
		validation.Email("email", in.Email, v)
	}
	return v
}

func (in SupplierInput) Apply(s *models.Supplier) {
	s.Name = strings.TrimSpace(in.Name)
	s.ContactName = in.ContactName
	s.Email = strings.TrimSpace(in.Email)
	s.Phone = in.Phone
	s.Address = in.Address
}

type ClientInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	TaxNumber  string `json:"tax_number"`
}

func (in ClientInput) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", strings.TrimSpace(in.Name), v)
	validation.MaxLen("name", in.Name, 255, v)
	if in.Email != "" {
		validation.Email("email", in.Email, v)
	}
	return v
}

func (in ClientInput) Apply(c *models.Client) {
	c.Name = strings.TrimSpace(in.Name)
	c.Email = strings.TrimSpace(in.Email)
	c.Phone = in.Phone
	c.Address = in.Address
	c.City = in.City
	c.PostalCode = in.PostalCode
	c.Country = in.Country
	c.TaxNumber = in.TaxNumber
}

func NewCategoryHandler(db *gorm.DB) *EntityHandler[models.Category, CategoryInput] {
	return &EntityHandler[models.Category, CategoryInput]{db: db, search: []string{"name"}, inUse: referenced(&models.Product{}, "category_id")}
}

func NewSupplierHandler(db *gorm.DB) *EntityHandler[models.Supplier, SupplierInput] {
	return &EntityHandler[models.Supplier, SupplierInput]{db: db, search: []string{"name", "contact_name"}, inUse: referenced(&models.Product{}, "supplier_id")}
}

// NewClientHandler serves clients. Clients with invoices or quotes cannot be
// deleted.
func NewClientHandler(db *gorm.DB) *EntityHandler[models.Client, ClientInput] {
	invoiced := referenced(&models.Invoice{}, "client_id")
	quoted := referenced(&models.Quote{}, "client_id")
	return &EntityHandler[models.Client, ClientInput]{
		db:     db,
		search: []string{"name", "email"},
		inUse: func(tx *gorm.DB, id uint) (bool, error) {
			if used, err := invoiced(tx, id); used || err != nil {
				return used, err
			}
			return quoted(tx, id)
		},
	}
}
