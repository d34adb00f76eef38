package memheap

// listNode is the intrusive doubly-linked list primitive shared by
// every bucket list and the large-allocation list. Embedding it
// (rather than wrapping a pointer to it) keeps list membership part
// of the owning struct's own memory, which matters here because
// buckets and large headers live inside raw mmap'd regions, not on
// the Go heap.
type listNode struct {
	prev, next *listNode
}

// listPushFront inserts node at the head of the list rooted at *head.
// node must not already be linked.
func listPushFront(head **listNode, node *listNode) {
	node.prev = nil
	node.next = *head
	if *head != nil {
		(*head).prev = node
	}
	*head = node
}

// listRemove unlinks node from the list rooted at *head. node must
// currently be a member of that list.
func listRemove(head **listNode, node *listNode) {
	switch {
	case node.prev == nil:
		*head = node.next
		if node.next != nil {
			node.next.prev = nil
		}
	case node.next == nil:
		node.prev.next = nil
	default:
		node.prev.next = node.next
		node.next.prev = node.prev
	}
	node.prev = nil
	node.next = nil
}

// listVerify walks the list rooted at head and panics if any
// prev/next link is inconsistent. Used only when Config.Verify is
// set; it is O(n) per call and not meant for hot paths.
func listVerify(head *listNode) {
	for n := head; n != nil; n = n.next {
		if n.prev != nil && n.prev.next != n {
			panic(&AllocatorFault{Kind: FaultIntegrity, Message: "list: prev.next does not point back to node"})
		}
		if n.next != nil && n.next.prev != n {
			panic(&AllocatorFault{Kind: FaultIntegrity, Message: "list: next.prev does not point back to node"})
		}
	}
}
