package diag

import "github.com/kitecorp/kitels/internal/source"

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func NewWarning(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevWarning, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithFix(fix Fix) Diagnostic {
	d.Fixes = append(d.Fixes, fix)
	return d
}

// AsUnnecessary tags the diagnostic for editor fade-out styling.
func (d Diagnostic) AsUnnecessary() Diagnostic {
	d.Unnecessary = true
	return d
}

func (d Diagnostic) WithData(key, value string) Diagnostic {
	if d.Data == nil {
		d.Data = make(map[string]string, 2)
	}
	d.Data[key] = value
	return d
}
