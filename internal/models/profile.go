// Package models holds the data types shared by the agent and the profile
// service.
package models

// Profile is the durable user record owned by the profile service and
// mirrored locally by the agent.
//
// Invariant: FacialFeatures and FaceImageURL are either both absent or both
// present together with FaceRegistered = true.
type Profile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	EmployeeID     string    `json:"employee_id"`
	Department     string    `json:"department"`
	FaceRegistered bool      `json:"face_registered"`
	FaceImageURL   string    `json:"face_image_url,omitempty"`
	FacialFeatures []float64 `json:"facial_features,omitempty"`
}

// Clone returns a deep copy so holders can hand out profiles without
// aliasing the features slice.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	if p.FacialFeatures != nil {
		c.FacialFeatures = append([]float64(nil), p.FacialFeatures...)
	}
	return &c
}

// SetFace applies a successful enrollment to the profile, keeping the face
// fields consistent.
func (p *Profile) SetFace(imageURL string, features []float64) {
	p.FaceRegistered = true
	p.FaceImageURL = imageURL
	p.FacialFeatures = append([]float64(nil), features...)
}

// FaceConsistent reports whether the face fields satisfy the invariant.
func (p *Profile) FaceConsistent() bool {
	registered := p.FaceImageURL != "" && len(p.FacialFeatures) > 0
	empty := p.FaceImageURL == "" && len(p.FacialFeatures) == 0
	if registered {
		return p.FaceRegistered
	}
	return empty
}
