package block

// Decoration описывает спрайт, который сопровождает блок
type Decoration struct {
	Texture   string
	Animated  bool
	Particles bool // эффект частиц вместо статичного билборда
}

// MaterialBehavior определяет свойства материала, важные для стриминга:
// нужен ли блоку меш, сопровождается ли он декорацией и является ли
// он ресурсным узлом (индексируется отдельно).
type MaterialBehavior interface {
	ID() BlockID
	Name() string
	Visible() bool
	Geometry() string
	Texture() string
	Decoration() (Decoration, bool)
	ResourceNode() bool
}

// Base – общая реализация MaterialBehavior для простых материалов
type Base struct {
	BlockID   BlockID
	BlockName string
	Tex       string
	Invisible bool
}

func (b *Base) ID() BlockID                    { return b.BlockID }
func (b *Base) Name() string                   { return b.BlockName }
func (b *Base) Visible() bool                  { return !b.Invisible }
func (b *Base) Geometry() string               { return "cube" }
func (b *Base) Texture() string                { return b.Tex }
func (b *Base) Decoration() (Decoration, bool) { return Decoration{}, false }
func (b *Base) ResourceNode() bool             { return false }

// HasDecoration возвращает true, если материал создаёт декорацию
func HasDecoration(id BlockID) bool {
	behavior, ok := Get(id)
	if !ok {
		return false
	}
	_, has := behavior.Decoration()
	return has
}

// IsResourceNode возвращает true для ресурсных узлов (руды)
func IsResourceNode(id BlockID) bool {
	behavior, ok := Get(id)
	return ok && behavior.ResourceNode()
}
