// Package entropy implements per-frame Huffman coding of byte streams.
package entropy

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/user/gopcodec/pkg/bitseq"
	"github.com/user/gopcodec/pkg/codecerr"
)

// Frequencies counts occurrences of each byte value.
type Frequencies map[byte]int

// CodeTable maps each symbol to its prefix-free code of '0'/'1' characters.
// It encodes to JSON as an object keyed by the decimal symbol value.
type CodeTable map[byte]string

// Node is a Huffman tree node. Leaves carry a Symbol; internal nodes carry
// the summed frequency of their subtree.
type Node struct {
	Symbol byte
	Freq   int
	Left   *Node
	Right  *Node

	seq int
}

// Leaf reports whether n is a leaf.
func (n *Node) Leaf() bool {
	return n.Left == nil && n.Right == nil
}

// BuildFrequencies counts the symbols of data.
func BuildFrequencies(data []byte) Frequencies {
	freq := make(Frequencies)
	for _, b := range data {
		freq[b]++
	}
	return freq
}

// nodeQueue orders nodes by (Freq, seq).
type nodeQueue []*Node

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].Freq != q[j].Freq {
		return q[i].Freq < q[j].Freq
	}
	return q[i].seq < q[j].seq
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(*Node)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// BuildTree builds the Huffman tree for freq. It returns nil when freq has
// no symbol with a positive count.
//
// Leaves are queued in ascending symbol order and every merged node gets a
// later sequence number than all nodes before it, so equal frequencies
// resolve the same way on every run. The first node popped becomes the
// left child.
func BuildTree(freq Frequencies) *Node {
	symbols := make([]int, 0, len(freq))
	for s, c := range freq {
		if c > 0 {
			symbols = append(symbols, int(s))
		}
	}
	if len(symbols) == 0 {
		return nil
	}
	sort.Ints(symbols)

	q := make(nodeQueue, 0, len(symbols))
	seq := 0
	for _, s := range symbols {
		q = append(q, &Node{Symbol: byte(s), Freq: freq[byte(s)], seq: seq})
		seq++
	}
	heap.Init(&q)
	for q.Len() > 1 {
		left := heap.Pop(&q).(*Node)
		right := heap.Pop(&q).(*Node)
		heap.Push(&q, &Node{Freq: left.Freq + right.Freq, Left: left, Right: right, seq: seq})
		seq++
	}
	return q[0]
}

// DeriveCodes walks the tree assigning '0' to left and '1' to right edges.
// A tree holding a single symbol gets the code "0".
func DeriveCodes(root *Node) CodeTable {
	codes := make(CodeTable)
	if root == nil {
		return codes
	}
	if root.Leaf() {
		codes[root.Symbol] = "0"
		return codes
	}
	var walk func(n *Node, prefix string)
	walk = func(n *Node, prefix string) {
		if n.Leaf() {
			codes[n.Symbol] = prefix
			return
		}
		walk(n.Left, prefix+"0")
		walk(n.Right, prefix+"1")
	}
	walk(root, "")
	return codes
}

// Encode concatenates the codes of data.
func Encode(data []byte, codes CodeTable) (bitseq.Sequence, error) {
	b := bitseq.NewBuilder()
	for i, s := range data {
		code, ok := codes[s]
		if !ok {
			return bitseq.Sequence{}, fmt.Errorf("symbol %d at offset %d has no code", s, i)
		}
		if err := b.WriteCode(code); err != nil {
			return bitseq.Sequence{}, fmt.Errorf("symbol %d: %w", s, err)
		}
	}
	return b.Sequence()
}

// Compress builds a code table for data and encodes it.
func Compress(data []byte) (bitseq.Sequence, CodeTable, error) {
	codes := DeriveCodes(BuildTree(BuildFrequencies(data)))
	seq, err := Encode(data, codes)
	if err != nil {
		return bitseq.Sequence{}, nil, err
	}
	return seq, codes, nil
}

// Decode reverses Encode with greedy prefix matching.
func Decode(seq bitseq.Sequence, codes CodeTable) ([]byte, error) {
	root, err := buildTrie(codes)
	if err != nil {
		return nil, err
	}
	if seq.Len() > 0 && root == nil {
		return nil, codecerr.Decode("huffman", "%d bits with an empty code table", seq.Len())
	}

	var out []byte
	n := root
	start := 0
	for i := 0; i < seq.Len(); i++ {
		n = n.next[seq.Bit(i)]
		if n == nil {
			return nil, codecerr.Decode("huffman", "no code matches bits %d..%d", start, i)
		}
		if n.leaf {
			out = append(out, n.symbol)
			n = root
			start = i + 1
		}
	}
	if n != root {
		return nil, codecerr.Decode("huffman", "stream ends inside a code starting at bit %d", start)
	}
	return out, nil
}

type trieNode struct {
	next   [2]*trieNode
	leaf   bool
	symbol byte
}

// buildTrie indexes codes for decoding and checks that they form a
// non-empty prefix-free set.
func buildTrie(codes CodeTable) (*trieNode, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	symbols := make([]int, 0, len(codes))
	for s := range codes {
		symbols = append(symbols, int(s))
	}
	sort.Ints(symbols)

	root := &trieNode{}
	for _, s := range symbols {
		code := codes[byte(s)]
		if code == "" {
			return nil, codecerr.Decode("huffman", "symbol %d has an empty code", s)
		}
		n := root
		for i := 0; i < len(code); i++ {
			if n.leaf {
				return nil, codecerr.Decode("huffman", "code table is not prefix-free at symbol %d", s)
			}
			var bit int
			switch code[i] {
			case '0':
			case '1':
				bit = 1
			default:
				return nil, codecerr.Decode("huffman", "symbol %d has invalid code %q", s, code)
			}
			if n.next[bit] == nil {
				n.next[bit] = &trieNode{}
			}
			n = n.next[bit]
		}
		if n.leaf || n.next[0] != nil || n.next[1] != nil {
			return nil, codecerr.Decode("huffman", "code table is not prefix-free at symbol %d", s)
		}
		n.leaf = true
		n.symbol = byte(s)
	}
	return root, nil
}
