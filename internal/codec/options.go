package codec

import "fmt"

// MoveEncodingOption selects the move encoding strategy.
type MoveEncodingOption string

const (
	FromUCI                       MoveEncodingOption = "from_uci"
	HuffmanCodeUCI                MoveEncodingOption = "huffman_code_uci"
	HuffmanCodeSAN                MoveEncodingOption = "huffman_code_san"
	MapToActionSpace              MoveEncodingOption = "map_to_action_space"
	MapToActionSpace2FoldSymmetry MoveEncodingOption = "map_to_action_space_2fold_symmetry"
	MapToActionSpace4FoldSymmetry MoveEncodingOption = "map_to_action_space_4fold_symmetry"
	HandleFromToSquaresSeparately MoveEncodingOption = "handle_from_to_squares_separately"
)

// MoveEncodingOptions lists every move option in declaration order.
var MoveEncodingOptions = []MoveEncodingOption{
	FromUCI, HuffmanCodeUCI, HuffmanCodeSAN, MapToActionSpace,
	MapToActionSpace2FoldSymmetry, MapToActionSpace4FoldSymmetry,
	HandleFromToSquaresSeparately,
}

// FromSquareEncodingOption selects the from-square encoder used by
// HandleFromToSquaresSeparately.
type FromSquareEncodingOption string

const (
	OccupiedIndex       FromSquareEncodingOption = "occupied_index"
	FromMaskLegal       FromSquareEncodingOption = "mask_legal"
	FromMaskPseudoLegal FromSquareEncodingOption = "mask_pseudo_legal"
	SquareIndex         FromSquareEncodingOption = "square_index"
)

// FromSquareEncodingOptions lists every from-square option.
var FromSquareEncodingOptions = []FromSquareEncodingOption{
	OccupiedIndex, FromMaskLegal, FromMaskPseudoLegal, SquareIndex,
}

// ToSquareEncodingOption selects the to-square encoder used by
// HandleFromToSquaresSeparately.
type ToSquareEncodingOption string

const (
	// MaskPieceSquareActionSpace keeps the historical value
	// "mask_potential_legal": the empty-board reach of the moving piece.
	MaskPieceSquareActionSpace ToSquareEncodingOption = "mask_potential_legal"
	ToMaskLegal                ToSquareEncodingOption = "mask_legal"
	ToMaskPseudoLegal          ToSquareEncodingOption = "mask_pseudo_legal"
)

// ToSquareEncodingOptions lists every to-square option.
var ToSquareEncodingOptions = []ToSquareEncodingOption{
	MaskPieceSquareActionSpace, ToMaskLegal, ToMaskPseudoLegal,
}

// ParseMoveEncodingOption accepts exactly the option string values.
func ParseMoveEncodingOption(s string) (MoveEncodingOption, error) {
	for _, o := range MoveEncodingOptions {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown move encoding option %q", s)
}

// ParseFromSquareEncodingOption accepts exactly the option string values.
func ParseFromSquareEncodingOption(s string) (FromSquareEncodingOption, error) {
	for _, o := range FromSquareEncodingOptions {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown from-square encoding option %q", s)
}

// ParseToSquareEncodingOption accepts exactly the option string values;
// the member name mask_piece_square_action_space is not a value.
func ParseToSquareEncodingOption(s string) (ToSquareEncodingOption, error) {
	for _, o := range ToSquareEncodingOptions {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown to-square encoding option %q", s)
}

// Config selects a codec. From and To are only read by
// HandleFromToSquaresSeparately.
type Config struct {
	Move MoveEncodingOption       `yaml:"move"`
	From FromSquareEncodingOption `yaml:"from_square,omitempty"`
	To   ToSquareEncodingOption   `yaml:"to_square,omitempty"`
}

// Validate reports the first unknown or missing option.
func (c Config) Validate() error {
	if _, err := ParseMoveEncodingOption(string(c.Move)); err != nil {
		return err
	}
	if c.Move != HandleFromToSquaresSeparately {
		return nil
	}
	if c.From == "" || c.To == "" {
		return fmt.Errorf("%s needs both from_square and to_square", c.Move)
	}
	if _, err := ParseFromSquareEncodingOption(string(c.From)); err != nil {
		return err
	}
	if _, err := ParseToSquareEncodingOption(string(c.To)); err != nil {
		return err
	}
	return nil
}

// NeedsHuffmanTable reports whether the move option is trained on a corpus.
func (o MoveEncodingOption) NeedsHuffmanTable() bool {
	return o == HuffmanCodeUCI || o == HuffmanCodeSAN
}

func (c Config) String() string {
	if c.Move == HandleFromToSquaresSeparately {
		return fmt.Sprintf("%s(%s,%s)", c.Move, c.From, c.To)
	}
	return string(c.Move)
}
