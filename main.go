// Copyright (c) 2022-2023 The Ledgerd developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package main

import "github.com/powchain/ledgerd/cmd"

func main() {
	cmd.Execute()
}
