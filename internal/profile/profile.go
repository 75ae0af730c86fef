// Package profile maps sender labels to display names and avatars.
package profile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is how a sender is shown in the client.
type Profile struct {
	Name   string `yaml:"name"`
	Avatar string `yaml:"avatar,omitempty"`
}

// Directory is a read-only sender → profile lookup.
type Directory struct {
	profiles map[string]Profile
}

type file struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// New builds a directory from profiles keyed by sender.
func New(profiles map[string]Profile) *Directory {
	d := &Directory{profiles: make(map[string]Profile, len(profiles))}
	for sender, p := range profiles {
		d.profiles[sender] = p
	}
	return d
}

// Default returns the two built-in chat participants.
func Default() *Directory {
	return New(map[string]Profile{
		"User 1": {Name: "Panha", Avatar: "assets/Panha.png"},
		"User 2": {Name: "So Panha", Avatar: "assets/SoPanha.png"},
	})
}

// Load reads a yaml file of the form
//
//	profiles:
//	  "User 1": {name: Panha, avatar: assets/Panha.png}
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse profiles %s: %w", path, err)
	}
	return New(f.Profiles), nil
}

// Lookup returns the profile of sender. Unknown senders are shown by their label with no avatar.
func (d *Directory) Lookup(sender string) Profile {
	if p, ok := d.profiles[sender]; ok {
		if strings.TrimSpace(p.Name) == "" {
			p.Name = sender
		}
		return p
	}
	return Profile{Name: sender}
}
