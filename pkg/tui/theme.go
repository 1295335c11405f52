package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
)

// Theme is used for coloring the board and the side panel.
type Theme struct {
	Name          string      `json:"name"`
	SquareDark    tcell.Color `json:"squareDark"`
	SquareLight   tcell.Color `json:"squareLight"`
	SquareOrigin  tcell.Color `json:"squareOrigin"`
	SquareMove    tcell.Color `json:"squareMove"`
	SquareCapture tcell.Color `json:"squareCapture"`
	SquareLast    tcell.Color `json:"squareLast"`
	SquareCheck   tcell.Color `json:"squareCheck"`
	White         tcell.Color `json:"white"`
	Black         tcell.Color `json:"black"`
	Rank          tcell.Color `json:"rank"`
	File          tcell.Color `json:"file"`
	Msg           tcell.Color `json:"msg"`
}

// ThemeHex is the config file form of a Theme.
type ThemeHex struct {
	Name          string `json:"name"`
	SquareDark    string `json:"squareDark"`
	SquareLight   string `json:"squareLight"`
	SquareOrigin  string `json:"squareOrigin"`
	SquareMove    string `json:"squareMove"`
	SquareCapture string `json:"squareCapture"`
	SquareLast    string `json:"squareLast"`
	SquareCheck   string `json:"squareCheck"`
	White         string `json:"white"`
	Black         string `json:"black"`
	Rank          string `json:"rank"`
	File          string `json:"file"`
	Msg           string `json:"msg"`
}

// fmtHex returns "#0" for ColorDefault so that it survives a round trip
// instead of being read back as black.
func fmtHex(v int32) string {
	if v == -1 {
		return "#0"
	}
	return fmt.Sprintf("#%06x", v)
}

// Hex converts a Theme to a ThemeHex
func (t Theme) Hex() ThemeHex {
	return ThemeHex{
		t.Name,
		fmtHex(t.SquareDark.Hex()),
		fmtHex(t.SquareLight.Hex()),
		fmtHex(t.SquareOrigin.Hex()),
		fmtHex(t.SquareMove.Hex()),
		fmtHex(t.SquareCapture.Hex()),
		fmtHex(t.SquareLast.Hex()),
		fmtHex(t.SquareCheck.Hex()),
		fmtHex(t.White.Hex()),
		fmtHex(t.Black.Hex()),
		fmtHex(t.Rank.Hex()),
		fmtHex(t.File.Hex()),
		fmtHex(t.Msg.Hex()),
	}
}

// Theme converts a ThemeHex to a Theme
func (t ThemeHex) Theme() Theme {
	return Theme{
		t.Name,
		tcell.GetColor(t.SquareDark),
		tcell.GetColor(t.SquareLight),
		tcell.GetColor(t.SquareOrigin),
		tcell.GetColor(t.SquareMove),
		tcell.GetColor(t.SquareCapture),
		tcell.GetColor(t.SquareLast),
		tcell.GetColor(t.SquareCheck),
		tcell.GetColor(t.White),
		tcell.GetColor(t.Black),
		tcell.GetColor(t.Rank),
		tcell.GetColor(t.File),
		tcell.GetColor(t.Msg),
	}
}

var ErrNoTheme = errors.New("theme: no theme found")

// ImportThemes returns the theme named want, looking at the provided themes
// first and at the built-in ones after.
func ImportThemes(want string, themes []ThemeHex) (Theme, error) {
	for _, t := range themes {
		if t.Name == want {
			return t.Theme(), nil
		}
	}
	for _, t := range Themes {
		if t.Name == want {
			return t, nil
		}
	}
	return Theme{}, ErrNoTheme
}

// LoadThemes reads a JSON array of ThemeHex.
func LoadThemes(path string) ([]ThemeHex, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var themes []ThemeHex
	if err := json.Unmarshal(b, &themes); err != nil {
		return nil, fmt.Errorf("theme: %s: %w", path, err)
	}
	return themes, nil
}

// ThemeBasic is the default theme
var ThemeBasic = Theme{
	"basic",            // Name
	tcell.Color188,     // SquareDark
	tcell.Color230,     // SquareLight
	tcell.Color226,     // SquareOrigin
	tcell.Color223,     // SquareMove
	tcell.Color218,     // SquareCapture
	tcell.Color229,     // SquareLast
	tcell.Color160,     // SquareCheck
	tcell.Color232,     // White
	tcell.Color232,     // Black
	tcell.Color247,     // Rank
	tcell.Color247,     // File
	tcell.ColorDefault, // Msg
}

// ThemeClassic uses wooden board colors with a green selection.
var ThemeClassic = Theme{
	"classic",                        // Name
	tcell.NewRGBColor(138, 86, 39),   // SquareDark
	tcell.NewRGBColor(255, 218, 153), // SquareLight
	tcell.NewRGBColor(0, 255, 0),     // SquareOrigin
	tcell.NewRGBColor(144, 238, 144), // SquareMove
	tcell.NewRGBColor(240, 128, 128), // SquareCapture
	tcell.NewRGBColor(205, 210, 106), // SquareLast
	tcell.NewRGBColor(220, 20, 60),   // SquareCheck
	tcell.ColorWhite,                 // White
	tcell.ColorBlack,                 // Black
	tcell.Color247,                   // Rank
	tcell.Color247,                   // File
	tcell.ColorDefault,               // Msg
}

var Themes = []Theme{ThemeBasic, ThemeClassic}
