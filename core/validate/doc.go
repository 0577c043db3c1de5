// Package validate runs semantic checks over a loaded diagnostic
// description document.
//
// Validation is split into two independent groups. Reference checkers
// verify that every symbolic reference (type names, session names,
// security level names, access pattern names) resolves against a
// declaration. Consistency checkers verify cross-entry properties:
// unique session ids, security subfunction pairing, trouble code naming
// conventions, and unused declarations.
//
// All checkers run unconditionally over an immutable document, and every
// finding is collected into a Result. Findings carry a stable code
// (Exxx for errors, Wxxx for warnings), a message, the document path of
// the offending entry, and an optional suggestion. Errors block the
// transform stage; warnings block only when the caller asks for strict
// handling via Result.Err(true).
package validate
