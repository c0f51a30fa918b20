package cli

import (
	"sort"
	"strings"
)

const RequiredMessage = "Обязательное поле"

type Field struct {
	Name     string
	Label    string
	Value    string
	Required bool
	Secret   bool
	Error    string
}

type Form struct {
	Fields []*Field
}

func (f *Form) Field(name string) *Field {
	for _, field := range f.Fields {
		if field.Name == name {
			return field
		}
	}
	return nil
}

// Value значение поля без окружающих пробелов. Секретные поля возвращаются как введены.
func (f *Form) Value(name string) string {
	field := f.Field(name)
	if field == nil {
		return ""
	}
	if field.Secret {
		return field.Value
	}
	return strings.TrimSpace(field.Value)
}

// Validate проверяет обязательные поля, прошлые ошибки сбрасываются
func (f *Form) Validate() bool {
	ok := true
	for _, field := range f.Fields {
		field.Error = ""
		if field.Required && strings.TrimSpace(field.Value) == "" {
			field.Error = RequiredMessage
			ok = false
		}
	}
	return ok
}

// ApplyErrors раскладывает ошибки валидации сервера по полям формы.
// Возвращает ошибки полей, которых в форме нет.
func (f *Form) ApplyErrors(errs map[string]string) map[string]string {
	rest := map[string]string{}
	for name, msg := range errs {
		if field := f.Field(name); field != nil {
			field.Error = msg
			continue
		}
		rest[name] = msg
	}
	return rest
}

func (f *Form) Errors() map[string]string {
	errs := map[string]string{}
	for _, field := range f.Fields {
		if field.Error != "" {
			errs[field.Name] = field.Error
		}
	}
	return errs
}

// RenderField подпись с маркером обязательности, значение и ошибка под полем, если она есть
func (s Styles) RenderField(f *Field) string {
	label := f.Label
	if f.Required {
		label += " " + s.Error.Render("*")
	}

	value := f.Value
	if f.Secret && value != "" {
		value = strings.Repeat("•", 8)
	}

	var sb strings.Builder
	sb.WriteString(s.Label.Render(label))
	sb.WriteString(": ")
	if f.Error != "" {
		sb.WriteString(s.Error.Render(value))
		sb.WriteString("\n  ")
		sb.WriteString(s.Error.Render(f.Error))
	} else {
		sb.WriteString(value)
	}
	return sb.String()
}

func (s Styles) RenderForm(f *Form) string {
	lines := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		lines = append(lines, s.RenderField(field))
	}
	return strings.Join(lines, "\n")
}

// RenderErrors вывод ошибок вне формы в стабильном порядке
func (s Styles) RenderErrors(errs map[string]string) string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, s.Error.Render(k+": "+errs[k]))
	}
	return strings.Join(lines, "\n")
}

func NewCreateUserForm(name, email, password, role string) *Form {
	return &Form{Fields: []*Field{
		{Name: "name", Label: "Имя", Value: name, Required: true},
		{Name: "email", Label: "Email", Value: email, Required: true},
		{Name: "password", Label: "Пароль", Value: password, Required: true, Secret: true},
		{Name: "role", Label: "Роль", Value: role},
	}}
}
