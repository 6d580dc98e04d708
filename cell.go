package vtcore

import "image/color"

// CellFlags is a bitmask of cell rendering attributes.
type CellFlags uint32

const (
	CellFlagBold CellFlags = 1 << iota
	CellFlagDim
	CellFlagItalic
	CellFlagInverse
	CellFlagHidden
	CellFlagStrike
	CellFlagUnderlineSingle
	CellFlagUnderlineDouble
	CellFlagUnderlineDotted
	CellFlagUnderlineDashed
	CellFlagUnderlineCurly
	CellFlagWrapline
	CellFlagWideChar
	CellFlagWideCharSpacer
	CellFlagLeadingSpacer
	CellFlagGraphic
	CellFlagHyperlink
	// CellFlagBlinkSlow and CellFlagBlinkFast aren't part of the square
	// flag set but piggyback on the same bitset for SGR 5/6 tracking.
	CellFlagBlinkSlow
	CellFlagBlinkFast
	// CellFlagDirty is rendering-side bookkeeping, not part of the
	// terminal's logical state.
	CellFlagDirty
)

// underlineFlags is every flag that represents an underline style, for
// the SGR 24 "no underline" / flags-sharing-a-style-group clears.
const underlineFlags = CellFlagUnderlineSingle | CellFlagUnderlineDouble |
	CellFlagUnderlineDotted | CellFlagUnderlineDashed | CellFlagUnderlineCurly

// ColorKind discriminates the tagged color variants a cell's fg/bg/underline
// color can hold.
type ColorKind uint8

const (
	// ColorKindNone is the zero value: no color explicitly set. Only
	// UnderlineColor uses it (meaning "inherit Fg"); Fg/Bg are always
	// initialized to a real Named variant by NewCell/Reset.
	ColorKindNone ColorKind = iota
	// ColorKindNamed refers to one of the 256 palette entries (0-255),
	// the default foreground/background (256, 257), the cursor color
	// (258), or a dim/bright foreground variant (259-268); see the
	// NamedColor* constants.
	ColorKindNamed
	// ColorKindSpec is a direct 24-bit RGB value (SGR 38/48;2;r;g;b).
	ColorKindSpec
	// ColorKindIndexed is an explicit palette index (SGR 38/48;5;n).
	ColorKindIndexed
)

// Color is a tagged union over the three ways a cell can reference color:
// a named slot (palette/default/cursor), a direct RGB spec, or an explicit
// palette index. Keeping it a small value type (instead of the image/color
// interface) lets cells compare and copy by value with no boxing.
type Color struct {
	Kind  ColorKind
	Named int // valid when Kind == ColorKindNamed
	R     uint8
	G     uint8
	B     uint8
	Index uint8 // valid when Kind == ColorKindIndexed
}

// NamedColorValue returns the Named color variant for one of the
// NamedColor* constants (palette slots 0-255, default fg/bg, cursor color).
func NamedColorValue(name int) Color {
	return Color{Kind: ColorKindNamed, Named: name}
}

// SpecColor returns the direct-RGB color variant.
func SpecColor(r, g, b uint8) Color {
	return Color{Kind: ColorKindSpec, R: r, G: g, B: b}
}

// IndexedColorValue returns the explicit-palette-index color variant.
func IndexedColorValue(index uint8) Color {
	return Color{Kind: ColorKindIndexed, Index: index}
}

// DefaultFg is the Color variant cells start with.
func DefaultFg() Color { return NamedColorValue(NamedColorForeground) }

// DefaultBg is the Color variant cells start with.
func DefaultBg() Color { return NamedColorValue(NamedColorBackground) }

// HyperlinkID is a handle into a per-terminal hyperlink interning table.
// Zero means "no hyperlink".
type HyperlinkID uint32

// Cell stores the character, colors, and formatting attributes for one grid
// position. Wide characters (2 columns) use a spacer cell in the second
// position; combining marks that follow a base character are appended to
// Zerowidth instead of occupying their own column.
type Cell struct {
	Char           rune
	Zerowidth      []rune
	Fg             Color
	Bg             Color
	UnderlineColor Color
	Flags          CellFlags
	Hyperlink      HyperlinkID
	Image          *CellImage // Image reference, nil if no image
}

// NewCell creates a cell initialized with space character and default colors.
func NewCell() Cell {
	return Cell{
		Char: ' ',
		Fg:   DefaultFg(),
		Bg:   DefaultBg(),
	}
}

// Reset clears all attributes and sets the cell to default state (space character, default colors).
func (c *Cell) Reset() {
	c.Char = ' '
	c.Zerowidth = nil
	c.Fg = DefaultFg()
	c.Bg = DefaultBg()
	c.UnderlineColor = Color{}
	c.Flags = 0
	c.Hyperlink = 0
	c.Image = nil
}

// HasFlag returns true if the specified flag is set.
func (c *Cell) HasFlag(flag CellFlags) bool {
	return c.Flags&flag != 0
}

// SetFlag enables the specified flag without affecting others.
func (c *Cell) SetFlag(flag CellFlags) {
	c.Flags |= flag
}

// ClearFlag disables the specified flag without affecting others.
func (c *Cell) ClearFlag(flag CellFlags) {
	c.Flags &^= flag
}

// IsDirty returns true if the cell was modified since the last ClearDirty call.
func (c *Cell) IsDirty() bool {
	return c.HasFlag(CellFlagDirty)
}

// MarkDirty marks the cell as modified for dirty tracking.
func (c *Cell) MarkDirty() {
	c.SetFlag(CellFlagDirty)
}

// ClearDirty resets the dirty tracking flag.
func (c *Cell) ClearDirty() {
	c.ClearFlag(CellFlagDirty)
}

// IsWide returns true if this cell contains a wide character (CJK, emoji, etc.) that occupies 2 columns.
func (c *Cell) IsWide() bool {
	return c.HasFlag(CellFlagWideChar)
}

// IsWideSpacer returns true if this is the second cell of a wide character (should be skipped during rendering).
func (c *Cell) IsWideSpacer() bool {
	return c.HasFlag(CellFlagWideCharSpacer)
}

// IsLeadingSpacer returns true if this cell stands in for a wide character
// that could not fit in the last column and wraps onto the next row.
func (c *Cell) IsLeadingSpacer() bool {
	return c.HasFlag(CellFlagLeadingSpacer)
}

// HasHyperlink returns true if this cell carries a hyperlink handle.
func (c *Cell) HasHyperlink() bool {
	return c.Hyperlink != 0
}

// AppendZerowidth attaches a combining mark to the cell, writing a
// no-break space as the base character first if the cell is otherwise
// empty.
func (c *Cell) AppendZerowidth(r rune) {
	if c.Char == ' ' && len(c.Zerowidth) == 0 {
		c.Char = ' '
	}
	c.Zerowidth = append(c.Zerowidth, r)
}

// Copy returns a deep copy of the cell, including the zero-width slice and image pointer.
func (c *Cell) Copy() Cell {
	var zw []rune
	if len(c.Zerowidth) > 0 {
		zw = make([]rune, len(c.Zerowidth))
		copy(zw, c.Zerowidth)
	}
	return Cell{
		Char:           c.Char,
		Zerowidth:      zw,
		Fg:             c.Fg,
		Bg:             c.Bg,
		UnderlineColor: c.UnderlineColor,
		Flags:          c.Flags,
		Hyperlink:      c.Hyperlink,
		Image:          c.Image,
	}
}

// HasImage returns true if this cell has an image reference.
func (c *Cell) HasImage() bool {
	return c.Image != nil
}

// colorFromStd converts a stdlib color.Color (the representation the
// external ansicode.Handler boundary hands us via OSC 4/10/11/12's SetColor)
// into the tagged Color variant used internally. The external decoder only
// ever constructs plain color.RGBA values for this path, so there is no
// named/indexed variant to recover here -- it always becomes a Spec color.
func colorFromStd(c color.Color) Color {
	if c == nil {
		return Color{}
	}
	r, g, b, _ := c.RGBA()
	return SpecColor(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
