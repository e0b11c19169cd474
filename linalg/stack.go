package linalg

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Stack is a scoped arena for buffers that live exactly one solver step.
// Buffers are handed out zeroed and released in LIFO order:
//
//	mark := stack.Mark()
//	defer stack.Release(mark)
//
// Backing arrays grow on demand and are kept across steps, so a cloth of
// stable size stops allocating after its first step.
type Stack struct {
	vec3s []mgl64.Vec3
	mat3s []mgl64.Mat3
	ints  []int

	vec3Top int
	mat3Top int
	intTop  int
	depth   int
}

// Mark is a stack position returned by Stack.Mark.
type Mark struct {
	vec3Top int
	mat3Top int
	intTop  int
	depth   int
}

func NewStack() *Stack {
	return &Stack{}
}

// Mark records the current position. Everything acquired after it is
// released by the matching Release.
func (s *Stack) Mark() Mark {
	s.depth++
	return Mark{vec3Top: s.vec3Top, mat3Top: s.mat3Top, intTop: s.intTop, depth: s.depth}
}

// Release frees every buffer acquired since the mark.
func (s *Stack) Release(m Mark) {
	if m.depth != s.depth {
		panic(fmt.Sprintf("linalg: stack released out of order (mark %d, depth %d)", m.depth, s.depth))
	}

	s.vec3Top = m.vec3Top
	s.mat3Top = m.mat3Top
	s.intTop = m.intTop
	s.depth--
}

// InUse reports whether any buffer is still held.
func (s *Stack) InUse() bool {
	return s.depth > 0 || s.vec3Top > 0 || s.mat3Top > 0 || s.intTop > 0
}

// Vec3s returns a zeroed dense vector of n entries.
func (s *Stack) Vec3s(n int) DenseVec3 {
	s.vec3s = grow(s.vec3s, s.vec3Top+n)
	buf := s.vec3s[s.vec3Top : s.vec3Top+n : s.vec3Top+n]
	s.vec3Top += n
	clear(buf)
	return buf
}

// Mat3s returns n zeroed blocks.
func (s *Stack) Mat3s(n int) []mgl64.Mat3 {
	s.mat3s = grow(s.mat3s, s.mat3Top+n)
	buf := s.mat3s[s.mat3Top : s.mat3Top+n : s.mat3Top+n]
	s.mat3Top += n
	clear(buf)
	return buf
}

// Diag returns a zeroed block diagonal matrix of n blocks.
func (s *Stack) Diag(n int) DiagMat33 {
	return s.Mat3s(n)
}

// Ints returns n zeroed ints.
func (s *Stack) Ints(n int) []int {
	s.ints = grow(s.ints, s.intTop+n)
	buf := s.ints[s.intTop : s.intTop+n : s.intTop+n]
	s.intTop += n
	clear(buf)
	return buf
}

// grow replaces the backing array when it is too small. Slices handed out
// before keep pointing at the old array, which stays valid until released.
func grow[T any](buf []T, need int) []T {
	if need <= len(buf) {
		return buf
	}

	size := max(2*len(buf), need, 64)
	return make([]T, size)
}
