package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	allowed := []string{"-c", "-config", "--config"}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "separate value",
			args: []string{"-c", "conf.json", "-a", ":8080"},
			want: []string{"-c", "conf.json"},
		},
		{
			name: "equals form",
			args: []string{"--config=conf.json", "-d", "dsn"},
			want: []string{"--config=conf.json"},
		},
		{
			name: "unknown flags dropped",
			args: []string{"-x", "1", "--fake-camera"},
			want: []string{},
		},
		{
			name: "flag at end keeps no value",
			args: []string{"-a", ":8080", "-c"},
			want: []string{"-c"},
		},
		{
			name: "next flag is not consumed as value",
			args: []string{"-c", "-fake-camera"},
			want: []string{"-c"},
		},
		{
			name: "order preserved",
			args: []string{"--config=a.json", "-c", "b.json"},
			want: []string{"--config=a.json", "-c", "b.json"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FilterArgs(tc.args, allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	orig := os.Args
	defer func() { os.Args = orig }()

	os.Args = []string{"agent", "-a", ":8080", "-c", "conf.json"}
	assert.Equal(t, "conf.json", JsonConfigFlags())

	os.Args = []string{"agent", "--config=alt.json"}
	assert.Equal(t, "alt.json", JsonConfigFlags())

	os.Args = []string{"agent", "-a", ":8080"}
	assert.Equal(t, "", JsonConfigFlags())
}
