package request

// Field identifies an input control that may contribute to a request.
type Field string

// Form fields.
const (
	FieldResolution Field = "resolution"
	FieldFPS        Field = "fps"
	FieldMute       Field = "mute"
	FieldStartTime  Field = "start_time"
	FieldDuration   Field = "duration"
	FieldGIFQuality Field = "gif_quality"
	FieldDeIDArgs   Field = "deid_args"
)

// baseFields are relevant to every task.
var baseFields = []Field{FieldResolution, FieldFPS, FieldMute, FieldStartTime, FieldDuration}

// FieldSet is the set of fields relevant to a task.
type FieldSet map[Field]bool

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool {
	return s[f]
}

// List returns the fields in a stable order.
func (s FieldSet) List() []Field {
	out := make([]Field, 0, len(s))
	for _, f := range append(append([]Field{}, baseFields...), FieldGIFQuality, FieldDeIDArgs) {
		if s[f] {
			out = append(out, f)
		}
	}
	return out
}

// RelevantFields returns the fields that are shown for task and read into
// the request. The renderer hides everything else and Build ignores it, so
// a hidden field's stale value never reaches the backend.
func RelevantFields(task Task) FieldSet {
	set := make(FieldSet, len(baseFields)+1)
	for _, f := range baseFields {
		set[f] = true
	}
	switch task {
	case TaskGIF:
		set[FieldGIFQuality] = true
	case TaskDeID:
		set[FieldDeIDArgs] = true
	}
	return set
}
