package provider

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/servicehub-backend/internal/availability"
	"github.com/nekogravitycat/servicehub-backend/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, "ProviderNotFound", "provider not found")
	ErrConflict        = apperror.New(http.StatusConflict, "Conflict", "provider was modified concurrently, retry the request")
	ErrServiceNotFound = apperror.New(http.StatusNotFound, "ServiceNotFound", "service not offered by this provider")
	ErrNotProvider     = apperror.New(http.StatusForbidden, "NotProvider", "only provider accounts can manage a provider profile")
	ErrInvalidService  = apperror.New(http.StatusBadRequest, "InvalidInput", "invalid service offering")
	ErrInvalidPhoto    = apperror.New(http.StatusBadRequest, "InvalidPhoto", "photo must be a JPEG or PNG image")
	ErrPhotoNotFound   = apperror.New(http.StatusNotFound, "PhotoNotFound", "provider has no photo")
)

// ServiceOffering is one service a provider sells.
type ServiceOffering struct {
	ID          string  `json:"id" bson:"id"`
	Name        string  `json:"name" bson:"name"`
	Category    string  `json:"category" bson:"category"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64 `json:"price" bson:"price"`
}

// ContactInfo holds how customers reach a provider outside the platform.
type ContactInfo struct {
	Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
}

// Provider is a service provider profile. Each user owns at most one.
type Provider struct {
	ID            string // UUID
	UserID        string
	Services      []ServiceOffering
	Schedule      availability.Schedule
	Rating        float64
	Bio           string
	Experience    int // years
	Contact       ContactInfo
	PhotoPath     string
	ThumbnailPath string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Service looks up one of the provider's offerings by id.
func (p *Provider) Service(id string) (ServiceOffering, bool) {
	for _, s := range p.Services {
		if s.ID == id {
			return s, true
		}
	}
	return ServiceOffering{}, false
}

// Clone returns a deep copy of p.
func (p *Provider) Clone() *Provider {
	out := *p
	if p.Services != nil {
		out.Services = append([]ServiceOffering(nil), p.Services...)
	}
	out.Schedule = p.Schedule.Clone()
	return &out
}

// Filter defines parameters for listing providers.
type Filter struct {
	Category string
	Page     int
	PageSize int
}

// UpsertRequest patches a provider profile. Nil fields are left as they are.
type UpsertRequest struct {
	Services     *[]ServiceOffering
	Availability *[]availability.Day
	Bio          *string
	Experience   *int
	Contact      *ContactInfo
}
