package block

import (
	"errors"
	"fmt"

	"github.com/annel0/aether/internal/vec"
)

// Type - идентификатор типа блока
type Type uint8

// Константы типов блоков. Значения совпадают с индексами в регистре.
const (
	Air Type = iota
	Water
	Dirt
	Stone
	Grass
	Sand

	typeCount // всегда последний
)

// ErrUnknownType возвращается для идентификатора вне фиксированного набора
var ErrUnknownType = errors.New("неизвестный тип блока")

// Descriptor описывает материал ландшафта
type Descriptor struct {
	Type   Type
	Name   string
	Solid  bool
	Liquid bool
	Alpha  bool
	// UVBase - ячейка атласа 4x4, из которой берётся текстура
	UVBase vec.Coordinate
}

// registry заполняется один раз при старте и больше не меняется
var registry = [typeCount]Descriptor{
	Air:   {Type: Air, Name: "air", Alpha: true, UVBase: vec.NewColumn(0, 0)},
	Water: {Type: Water, Name: "water", Liquid: true, Alpha: true, UVBase: vec.NewColumn(1, 2)},
	Dirt:  {Type: Dirt, Name: "dirt", Solid: true, UVBase: vec.NewColumn(0, 2)},
	Stone: {Type: Stone, Name: "stone", Solid: true, UVBase: vec.NewColumn(1, 3)},
	Grass: {Type: Grass, Name: "grass", Solid: true, UVBase: vec.NewColumn(0, 3)},
	Sand:  {Type: Sand, Name: "sand", Solid: true, UVBase: vec.NewColumn(2, 3)},
}

// Get возвращает описание типа блока
func Get(id Type) (*Descriptor, error) {
	if !id.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, id)
	}
	return &registry[id], nil
}

// All возвращает копию всех описаний в порядке идентификаторов
func All() []Descriptor {
	out := make([]Descriptor, len(registry))
	copy(out, registry[:])
	return out
}

// IsValid проверяет, входит ли идентификатор в фиксированный набор
func (t Type) IsValid() bool {
	return t < typeCount
}

// IsEmpty возвращает true только для воздуха
func (t Type) IsEmpty() bool {
	return t == Air
}

// Descriptor возвращает описание типа; для неизвестного типа - описание воздуха
func (t Type) Descriptor() *Descriptor {
	if !t.IsValid() {
		return &registry[Air]
	}
	return &registry[t]
}

// String возвращает имя типа
func (t Type) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
	return registry[t].Name
}
