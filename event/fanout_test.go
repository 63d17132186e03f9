package event

import "testing"

func TestFanoutPublishesToEverySink(t *testing.T) {
	f := NewFanout[int]()
	var a, b []int
	f.Register(func(v int) { a = append(a, v) })
	f.Register(func(v int) { b = append(b, v) })

	f.Publish(1)
	f.Publish(2)

	want := []int{1, 2}
	if len(a) != len(want) || a[0] != want[0] || a[1] != want[1] {
		t.Fatalf("sink a: got %v, want %v", a, want)
	}
	if len(b) != len(want) || b[0] != want[0] || b[1] != want[1] {
		t.Fatalf("sink b: got %v, want %v", b, want)
	}
}

func TestFanoutRegisterReturnsSelfForChaining(t *testing.T) {
	f := NewFanout[int]()
	ret := f.Register(func(int) {})
	if ret != f {
		t.Fatal("Register did not return the same Fanout for chaining")
	}
}
