// Command carve builds and edits polygonal meshes from the command line.
package main

func main() {
	Execute()
}
