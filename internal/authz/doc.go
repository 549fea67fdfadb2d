// Package authz evaluates role and permission requirements against an
// authenticated principal. Evaluation is pure: the decision depends
// only on the principal and the requirement, never on external state.
package authz
