package interpreter

import (
	"expresso/pkg/ast"
)

// PushFrame starts evaluating node. The frame inherits the frame pointer
// and env of the frame below; call-type nodes open an activation record at
// the current operand height.
func (i *Interpreter) PushFrame(node ast.Node) (*Frame, error) {
	if i.frames.Size() >= i.maxStack {
		return nil, fault(FaultStackOverflow, "frame stack exceeds %d frames", i.maxStack)
	}

	f := &Frame{Node: node, Base: len(i.stack)}
	if top := i.frames.Peek(); top != nil {
		f.FP = top.FP
		f.Env = top.Env
	}
	if isCallType(node) {
		f.FP = len(i.stack)
	}
	i.frames.Push(f)
	return f, nil
}

// PopFrame removes the top frame
func (i *Interpreter) PopFrame() (*Frame, error) {
	if i.frames.Size() == 0 {
		return nil, fault(FaultSystem, "pop from an empty frame stack")
	}
	return i.frames.Pop(), nil
}

// IsEvaluating reports whether node has a frame anywhere on the frame stack
func (i *Interpreter) IsEvaluating(node ast.Node) bool {
	for _, f := range i.frames.Array() {
		if f.Node == node {
			return true
		}
	}
	return false
}

// PushValue pushes v on the operand stack
func (i *Interpreter) PushValue(v Value) error {
	if len(i.stack) >= i.maxStack {
		return fault(FaultStackOverflow, "operand stack exceeds %d slots", i.maxStack)
	}
	i.stack = append(i.stack, v)
	return nil
}

// PopValue removes the top operand
func (i *Interpreter) PopValue() (Value, error) {
	if len(i.stack) == 0 {
		return Null, fault(FaultSystem, "pop from an empty operand stack")
	}
	v := i.stack[len(i.stack)-1]
	i.stack[len(i.stack)-1] = Null
	i.stack = i.stack[:len(i.stack)-1]
	return v, nil
}

// TopValue returns the top operand without removing it
func (i *Interpreter) TopValue() (Value, error) {
	if len(i.stack) == 0 {
		return Null, fault(FaultSystem, "empty operand stack")
	}
	return i.stack[len(i.stack)-1], nil
}

// Get reads the slot at an absolute offset
func (i *Interpreter) Get(abs int) (Value, error) {
	if abs < 0 || abs >= len(i.stack) {
		return Null, fault(FaultSystem, "slot %d out of bounds (height %d)", abs, len(i.stack))
	}
	return i.stack[abs], nil
}

// Set writes the slot at an absolute offset
func (i *Interpreter) Set(abs int, v Value) error {
	if abs < 0 || abs >= len(i.stack) {
		return fault(FaultSystem, "slot %d out of bounds (height %d)", abs, len(i.stack))
	}
	i.stack[abs] = v
	return nil
}

// Dup copies the slot at abs onto the top of the stack
func (i *Interpreter) Dup(abs int) error {
	v, err := i.Get(abs)
	if err != nil {
		return err
	}
	return i.PushValue(v)
}

// Height returns the operand stack height
func (i *Interpreter) Height() int {
	return len(i.stack)
}

// Depth returns the number of frames on the frame stack
func (i *Interpreter) Depth() int {
	return i.frames.Size()
}

// FramePointers returns the frame pointers of the active function calls,
// outermost first
func (i *Interpreter) FramePointers() []int {
	var fps []int
	for _, f := range i.frames.Array() {
		if f.call != nil && f.call.closure != nil && f.call.callee != nil {
			fps = append(fps, f.FP)
		}
	}
	return fps
}

func (i *Interpreter) popN(n int) ([]Value, error) {
	if n > len(i.stack) {
		return nil, fault(FaultSystem, "pop of %d operands from a stack of %d", n, len(i.stack))
	}
	vals := make([]Value, n)
	copy(vals, i.stack[len(i.stack)-n:])
	i.truncate(len(i.stack) - n)
	return vals, nil
}

func (i *Interpreter) truncate(height int) {
	if height < 0 || height >= len(i.stack) {
		return
	}
	clear(i.stack[height:])
	i.stack = i.stack[:height]
}

// finish pops the top frame, restores its operand height and resumes the
// frame below
func (i *Interpreter) finish() error {
	f, err := i.PopFrame()
	if err != nil {
		return err
	}
	i.truncate(f.Base)
	i.resumeParent()
	return nil
}

// yield finishes the top frame with a result value
func (i *Interpreter) yield(v Value) error {
	if err := i.finish(); err != nil {
		return err
	}
	return i.PushValue(v)
}

// produce pushes the value of a node that needed no frame
func (i *Interpreter) produce(v Value) error {
	if err := i.PushValue(v); err != nil {
		return err
	}
	i.resumeParent()
	return nil
}

func (i *Interpreter) resumeParent() {
	i.current = nil
	if top := i.frames.Peek(); top != nil {
		i.current = top.Node
	}
}

// schedule moves to the next operand of f. It reports false once every
// operand has been evaluated.
func (i *Interpreter) schedule(f *Frame, operands ...ast.Expression) bool {
	if f.Child < len(operands) {
		i.current = operands[f.Child]
		f.Child++
		return true
	}
	return false
}
