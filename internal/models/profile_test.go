package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_Clone(t *testing.T) {
	var nilProfile *Profile
	assert.Nil(t, nilProfile.Clone())

	p := &Profile{ID: "u1", FacialFeatures: []float64{0.1, 0.2}}
	c := p.Clone()

	c.FacialFeatures[0] = 9.9
	assert.Equal(t, 0.1, p.FacialFeatures[0])
}

func TestProfile_SetFace(t *testing.T) {
	p := &Profile{ID: "u1"}
	features := []float64{0.1, 0.2}

	p.SetFace("https://blob/u1.jpg", features)

	assert.True(t, p.FaceRegistered)
	assert.Equal(t, "https://blob/u1.jpg", p.FaceImageURL)
	assert.Equal(t, features, p.FacialFeatures)
	assert.True(t, p.FaceConsistent())

	// input slice is not aliased
	features[0] = 9.9
	assert.Equal(t, 0.1, p.FacialFeatures[0])
}

func TestProfile_FaceConsistent(t *testing.T) {
	tests := []struct {
		name string
		p    Profile
		want bool
	}{
		{"empty", Profile{}, true},
		{"registered", Profile{FaceRegistered: true, FaceImageURL: "u", FacialFeatures: []float64{1}}, true},
		{"url without features", Profile{FaceImageURL: "u"}, false},
		{"features without url", Profile{FacialFeatures: []float64{1}}, false},
		{"fields present but flag unset", Profile{FaceImageURL: "u", FacialFeatures: []float64{1}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.p.FaceConsistent())
		})
	}
}

func TestProfile_JSONOmitsEmptyFaceFields(t *testing.T) {
	data, err := json.Marshal(&Profile{ID: "u1"})
	require.NoError(t, err)

	assert.NotContains(t, string(data), "face_image_url")
	assert.NotContains(t, string(data), "facial_features")
	assert.Contains(t, string(data), `"face_registered":false`)
}
