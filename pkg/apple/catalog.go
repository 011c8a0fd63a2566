package apple

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Model identifies an iPhone 7 line.
type Model string

const (
	ModelPlus  Model = "plus"
	ModelSeven Model = "seven"
)

// DisplayName is the human name used in notification text.
func (m Model) DisplayName() string {
	if m == ModelPlus {
		return "iphone 7 plus"
	}
	return "iphone 7"
}

// Color is a finish as spelled on the command line.
type Color string

const (
	ColorBlack    Color = "black"
	ColorJetBlack Color = "jetBlack"
	ColorSilver   Color = "silver"
	ColorGold     Color = "gold"
	ColorRose     Color = "rose"
)

const DefaultCarrier = "att"

var ErrUnknownProduct = errors.New("unknown product configuration")

// UnknownProductError names the selection field that has no table entry.
type UnknownProductError struct {
	Field string
	Value string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Field, e.Value)
}

func (e *UnknownProductError) Unwrap() error {
	return ErrUnknownProduct
}

// Selection is the product configuration being watched.
type Selection struct {
	Model    Model  `json:"model"`
	Color    Color  `json:"color"`
	Capacity int    `json:"capacity"`
	Carrier  string `json:"carrier"`
	Zip      string `json:"zip"`
}

// Codes are vendor identifiers, already URL-encoded for the query string.
type Codes struct {
	Part    string `json:"part"`
	Carrier string `json:"carrier"`
}

func (s Selection) String() string {
	return fmt.Sprintf("%dGB %s %s (%s) near %s", s.Capacity, s.Color, s.Model.DisplayName(), s.CarrierName(), s.Zip)
}

// CarrierName is the normalized carrier key, defaulting to att.
func (s Selection) CarrierName() string {
	c := strings.ToLower(strings.TrimSpace(s.Carrier))
	if c == "" {
		return DefaultCarrier
	}
	return c
}

// Resolve looks up both codes. No request should be made when it fails.
func (s Selection) Resolve() (Codes, error) {
	part, err := PartCode(s.Model, s.Color, s.Capacity)
	if err != nil {
		return Codes{}, err
	}
	carrier, err := CarrierCode(s.Carrier)
	if err != nil {
		return Codes{}, err
	}
	return Codes{Part: part, Carrier: carrier}, nil
}

type partKey struct {
	model    Model
	color    Color
	capacity int
}

var partCodes = map[partKey]string{
	{ModelPlus, ColorBlack, 32}:     "MNQR2LL%2FA",
	{ModelPlus, ColorBlack, 128}:    "MN522LL%2FA",
	{ModelPlus, ColorBlack, 256}:    "MN592LL%2FA",
	{ModelPlus, ColorJetBlack, 128}: "MN682LL%2FA",
	{ModelPlus, ColorJetBlack, 256}: "MN6E2LL%2FA",
	{ModelPlus, ColorSilver, 32}:    "MNQT2LL%2FA",
	{ModelPlus, ColorSilver, 128}:   "MN532LL%2FA",
	{ModelPlus, ColorSilver, 256}:   "MN5C2LL%2FA",
	{ModelPlus, ColorGold, 32}:      "MNQU2LL%2FA",
	{ModelPlus, ColorGold, 128}:     "MN552LL%2FA",
	{ModelPlus, ColorGold, 256}:     "MN5D2LL%2FA",
	{ModelPlus, ColorRose, 32}:      "MNQV2LL%2FA",
	{ModelPlus, ColorRose, 128}:     "MN562LL%2FA",
	{ModelPlus, ColorRose, 256}:     "MN5E2LL%2FA",

	{ModelSeven, ColorBlack, 32}:     "MN9D2LL%2FA",
	{ModelSeven, ColorBlack, 128}:    "MN9H2LL%2FA",
	{ModelSeven, ColorBlack, 256}:    "MN9N2LL%2FA",
	{ModelSeven, ColorJetBlack, 128}: "MN9M2LL%2FA",
	{ModelSeven, ColorJetBlack, 256}: "MN9T2LL%2FA",
	{ModelSeven, ColorSilver, 32}:    "MN9E2LL%2FA",
	{ModelSeven, ColorSilver, 128}:   "MN9J2LL%2FA",
	{ModelSeven, ColorSilver, 256}:   "MN9P2LL%2FA",
	{ModelSeven, ColorGold, 32}:      "MN9F2LL%2FA",
	{ModelSeven, ColorGold, 128}:     "MN9K2LL%2FA",
	{ModelSeven, ColorGold, 256}:     "MN9Q2LL%2FA",
	{ModelSeven, ColorRose, 32}:      "MN9G2LL%2FA",
	{ModelSeven, ColorRose, 128}:     "MN9L2LL%2FA",
	{ModelSeven, ColorRose, 256}:     "MN9R2LL%2FA",
}

var carrierCodes = map[string]string{
	"att":     "ATT%2FUS",
	"sprint":  "SPRINT%2FUS",
	"tmobile": "TMOBILE%2FUS",
	"verizon": "VERIZON%2FUS",
}

// PartCode returns the part number for an exact (case-sensitive) triple.
func PartCode(model Model, color Color, capacity int) (string, error) {
	if code, ok := partCodes[partKey{model, color, capacity}]; ok {
		return code, nil
	}

	// Report the first field that cannot match anything.
	modelKnown, colorKnown := false, false
	for k := range partCodes {
		if k.model == model {
			modelKnown = true
			if k.color == color {
				colorKnown = true
			}
		}
	}
	switch {
	case !modelKnown:
		return "", &UnknownProductError{Field: "model", Value: string(model)}
	case !colorKnown:
		return "", &UnknownProductError{Field: "color", Value: string(color)}
	default:
		return "", &UnknownProductError{Field: "capacity", Value: fmt.Sprintf("%d", capacity)}
	}
}

// CarrierCode matches the carrier case-insensitively. Empty means att.
func CarrierCode(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultCarrier
	}
	if code, ok := carrierCodes[key]; ok {
		return code, nil
	}
	return "", &UnknownProductError{Field: "carrier", Value: name}
}

// CatalogEntry is one orderable configuration.
type CatalogEntry struct {
	Model    Model  `json:"model"`
	Color    Color  `json:"color"`
	Capacity int    `json:"capacity"`
	Part     string `json:"part"`
}

// Catalog lists every known configuration sorted by model, color, capacity.
func Catalog() []CatalogEntry {
	entries := make([]CatalogEntry, 0, len(partCodes))
	for k, code := range partCodes {
		entries = append(entries, CatalogEntry{Model: k.model, Color: k.color, Capacity: k.capacity, Part: code})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Model != b.Model {
			return a.Model < b.Model
		}
		if a.Color != b.Color {
			return a.Color < b.Color
		}
		return a.Capacity < b.Capacity
	})
	return entries
}

// Carriers lists the supported carrier names.
func Carriers() []string {
	names := make([]string, 0, len(carrierCodes))
	for name := range carrierCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
