package memheap

import "testing"

func TestListPushFrontAndRemove(t *testing.T) {
	var head *listNode
	a, b, c := &listNode{}, &listNode{}, &listNode{}

	listPushFront(&head, a)
	listPushFront(&head, b)
	listPushFront(&head, c)

	want := []*listNode{c, b, a}
	got := collect(head)
	if len(got) != len(want) {
		t.Fatalf("list length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d = %p, want %p", i, got[i], want[i])
		}
	}

	listRemove(&head, b)
	got = collect(head)
	if len(got) != 2 || got[0] != c || got[1] != a {
		t.Fatalf("after removing middle node, got %v", got)
	}
	if b.prev != nil || b.next != nil {
		t.Fatal("removed node still has dangling links")
	}

	listRemove(&head, c)
	got = collect(head)
	if len(got) != 1 || got[0] != a {
		t.Fatalf("after removing head, got %v", got)
	}

	listRemove(&head, a)
	if head != nil {
		t.Fatal("list should be empty")
	}
}

func collect(head *listNode) []*listNode {
	var out []*listNode
	for n := head; n != nil; n = n.next {
		out = append(out, n)
	}
	return out
}
