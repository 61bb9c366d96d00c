// Package unidiffxml reads and writes diff documents.
//
// A document has a single unidiff root naming the diff. Its children are
// target groups (system, spob, tech, faction) carrying the target name, and
// each group's children are hunks: the element name is the hunk tag, the
// text is the payload, and XML attributes are hunk attributes.
//
//	<unidiff name="open_gate">
//	  <system name="Alpha">
//	    <jump_add>Beta</jump_add>
//	    <asteroids_density label="ring">0.4</asteroids_density>
//	  </system>
//	</unidiff>
package unidiffxml
