/*
Package rmsd implements least-squares superposition of paired point sets with
a version of the Kabsch algorithm that is described in detail here:
http://cnx.org/content/m11608/latest/

Superpose returns the rotation and translation that map the first set onto
the second, along with the remaining RMSD. Fit and Distances evaluate a
given motion without refitting.
*/
package rmsd
