// +build gofuzz

package chain

func Fuzz(data []byte) int {
	block := new(Block)
	_, err := block.ParseFromSlice(data)
	if err != nil {
		return 0
	}
	return 1
}
